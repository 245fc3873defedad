package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
)

func Decompose(ctx context.Context, in *GraphState, decomposer contractx.Decomposer) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	dec, err := decomposer.Decompose(ctx, in.Query)
	if err != nil {
		return nil, err
	}
	in.Decomposition = dec

	log.Debug().
		Bool("is_complex", dec.IsComplex).
		Int("tasks", len(dec.Tasks)).
		Bool("requires_user_context", dec.RequiresUserContext).
		Msg("query decomposed")
	return in, nil
}
