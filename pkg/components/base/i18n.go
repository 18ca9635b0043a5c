package base

import (
	"context"

	"github.com/iota-uz/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/automationhub/console/pkg/composables"
	"github.com/automationhub/console/pkg/types"
)

var fallbackPageCtx = types.NewPageContext(i18n.NewBundle(language.English), language.English, nil)

// T translates key through the page context of ctx, other is the English
// text used when the catalog has no entry.
func T(ctx context.Context, key, other string, data ...map[string]interface{}) string {
	pageCtx, ok := composables.TryUsePageCtx(ctx)
	if !ok {
		pageCtx = fallbackPageCtx
	}
	return pageCtx.TDefault(key, other, data...)
}
