// Package builtin ships the stock tools wired into the default agent
// composition.
package builtin

import (
	"net/http"

	"github.com/relaykit/relay/tools"
)

// RegisterAll registers every builtin tool into the registry.
func RegisterAll(reg *tools.Registry) error {
	all := []tools.Tool{
		PriceData(),
		TechnicalAnalysis(),
		ExecuteTrade(),
		WebFetch(http.DefaultClient),
		CurrentTime(),
	}
	for _, t := range all {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}
