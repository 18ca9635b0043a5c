package types

import (
	"net/url"

	"github.com/iota-uz/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// PageContextProvider carries the locale and URL of the page being rendered.
// Components read it from the request context for translations.
type PageContextProvider interface {
	// T translates a message ID to the current locale with optional template data.
	// If a prefix was set via Namespace(), it will be prepended to the message ID.
	T(key string, args ...map[string]interface{}) string

	// TSafe is like T but returns an empty string on error instead of panicking.
	TSafe(key string, args ...map[string]interface{}) string

	// TDefault translates key and falls back to the given English text when
	// the catalog has no entry for it.
	TDefault(key, other string, args ...map[string]interface{}) string

	Namespace(prefix string) PageContextProvider
	GetLocale() language.Tag
	GetURL() *url.URL
	GetLocalizer() *i18n.Localizer
}

type PageContext struct {
	Locale    language.Tag
	URL       *url.URL
	Localizer *i18n.Localizer
	prefix    string
}

var _ PageContextProvider = (*PageContext)(nil)

// NewPageContext builds a page context for u with a localizer from bundle.
func NewPageContext(bundle *i18n.Bundle, locale language.Tag, u *url.URL) *PageContext {
	if u == nil {
		u = &url.URL{}
	}
	return &PageContext{
		Locale:    locale,
		URL:       u,
		Localizer: i18n.NewLocalizer(bundle, locale.String()),
	}
}

func (p *PageContext) messageID(k string) string {
	if p.prefix != "" {
		return p.prefix + "." + k
	}
	return k
}

func (p *PageContext) T(k string, args ...map[string]interface{}) string {
	if len(args) > 1 {
		panic("T(): too many arguments")
	}

	cfg := &i18n.LocalizeConfig{MessageID: p.messageID(k)}
	if len(args) == 1 {
		cfg.TemplateData = args[0]
	}
	return p.Localizer.MustLocalize(cfg)
}

func (p *PageContext) TSafe(k string, args ...map[string]interface{}) string {
	if len(args) > 1 {
		panic("T(): too many arguments")
	}

	cfg := &i18n.LocalizeConfig{MessageID: p.messageID(k)}
	if len(args) == 1 {
		cfg.TemplateData = args[0]
	}

	result, err := p.Localizer.Localize(cfg)
	if err != nil {
		return ""
	}

	return result
}

func (p *PageContext) TDefault(k, other string, args ...map[string]interface{}) string {
	if len(args) > 1 {
		panic("T(): too many arguments")
	}

	id := p.messageID(k)
	cfg := &i18n.LocalizeConfig{
		MessageID:      id,
		DefaultMessage: &i18n.Message{ID: id, Other: other},
	}
	if len(args) == 1 {
		cfg.TemplateData = args[0]
	}

	// a non-default locale returns the default message along with a
	// not-found error
	result, err := p.Localizer.Localize(cfg)
	if err != nil && result == "" {
		return other
	}
	return result
}

// Namespace returns a copy whose message IDs are prefixed with prefix.
func (p *PageContext) Namespace(prefix string) PageContextProvider {
	if p.prefix != "" {
		prefix = p.prefix + "." + prefix
	}
	return &PageContext{
		Locale:    p.Locale,
		URL:       p.URL,
		Localizer: p.Localizer,
		prefix:    prefix,
	}
}

func (p *PageContext) GetLocale() language.Tag {
	return p.Locale
}

func (p *PageContext) GetURL() *url.URL {
	return p.URL
}

func (p *PageContext) GetLocalizer() *i18n.Localizer {
	return p.Localizer
}
