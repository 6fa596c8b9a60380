package bureaus

import (
	"context"

	"github.com/bher20/fxratemanager/pkg/providers"
)

// KindStatic reports the quotes configured on the descriptor itself.
const KindStatic = "static"

func init() {
	Register(KindStatic, func(d Descriptor, _ Env) (Bureau, error) {
		return &staticBureau{base: base{d: d}}, nil
	})
}

type staticBureau struct {
	base
}

func (b *staticBureau) FetchQuotes(ctx context.Context) (map[string]Quote, error) {
	if len(b.d.Quotes) == 0 {
		return nil, providers.ErrNoData
	}
	out := make(map[string]Quote, len(b.d.Quotes))
	for k, v := range b.d.Quotes {
		out[k] = v
	}
	return out, nil
}
