package login

import "net/url"

type LoginProps struct {
	ErrorsMap    map[string]string
	Username     string
	ErrorMessage string
	Notice       string
	Next         string
}

func (p *LoginProps) action() string {
	if p.Next == "" {
		return "/login"
	}
	return "/login?" + url.Values{"next": {p.Next}}.Encode()
}
