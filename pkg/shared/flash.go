package shared

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// SetFlash stores a one-shot message read back by composables.UseFlash.
func SetFlash(w http.ResponseWriter, name string, value []byte) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    base64.URLEncoding.EncodeToString(value),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func SetFlashMap[K comparable, V any](w http.ResponseWriter, name string, value map[K]V) {
	errorsJSON, err := json.Marshal(value)
	if err != nil {
		return
	}
	SetFlash(w, name, errorsJSON)
}
