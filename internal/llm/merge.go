package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"docsense/internal/port"
)

// Field provenance values recorded by MergeFieldService.
const (
	ProvenanceAgree        = "agree"
	ProvenancePrimary      = "primary"
	ProvenanceSecondary    = "secondary"
	ProvenanceDisagreement = "disagreement"
)

// MergeFieldService runs two services in parallel and fills the fields the
// primary left unresolved from the secondary.
type MergeFieldService struct {
	primary   port.FieldService
	secondary port.FieldService
	log       zerolog.Logger
}

// NewMergeFieldService creates a MergeFieldService from primary and secondary services.
func NewMergeFieldService(primary, secondary port.FieldService, log zerolog.Logger) *MergeFieldService {
	return &MergeFieldService{primary: primary, secondary: secondary, log: log}
}

func (m *MergeFieldService) ExtractFields(ctx context.Context, req port.FieldRequest) (*port.FieldOutput, error) {
	type result struct {
		output *port.FieldOutput
		err    error
	}

	var (
		wg               sync.WaitGroup
		pResult, sResult result
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		out, err := m.primary.ExtractFields(ctx, req)
		pResult = result{out, err}
	}()
	go func() {
		defer wg.Done()
		out, err := m.secondary.ExtractFields(ctx, req)
		sResult = result{out, err}
	}()
	wg.Wait()

	if pResult.err != nil && sResult.err != nil {
		return nil, fmt.Errorf("both providers failed: primary: %v; secondary: %v", pResult.err, sResult.err)
	}

	if pResult.err != nil {
		m.log.Warn().Err(pResult.err).Msg("llm merge: primary failed, using secondary only")
		sResult.output.FieldProvenance = map[string]string{"_source": "secondary_only"}
		sResult.output.SecondaryModel = sResult.output.ModelUsed
		return sResult.output, nil
	}

	if sResult.err != nil {
		m.log.Warn().Err(sResult.err).Msg("llm merge: secondary failed, using primary only")
		pResult.output.FieldProvenance = map[string]string{"_source": "primary_only"}
		return pResult.output, nil
	}

	return mergeOutputs(req.Fields, pResult.output, sResult.output), nil
}

func mergeOutputs(fields []string, primary, secondary *port.FieldOutput) *port.FieldOutput {
	values := make(map[string]string, len(fields))
	provenance := make(map[string]string, len(fields))

	for _, name := range fields {
		pVal, pOK := primary.Values[name]
		sVal, sOK := secondary.Values[name]
		pVal, sVal = strings.TrimSpace(pVal), strings.TrimSpace(sVal)
		pOK = pOK && pVal != ""
		sOK = sOK && sVal != ""

		switch {
		case pOK && sOK && strings.EqualFold(pVal, sVal):
			values[name] = pVal
			provenance[name] = ProvenanceAgree
		case pOK && sOK:
			values[name] = pVal
			provenance[name] = ProvenanceDisagreement
		case pOK:
			values[name] = pVal
			provenance[name] = ProvenancePrimary
		case sOK:
			values[name] = sVal
			provenance[name] = ProvenanceSecondary
		}
	}

	return &port.FieldOutput{
		Values:          values,
		ModelUsed:       primary.ModelUsed,
		PromptUsed:      primary.PromptUsed,
		FieldProvenance: provenance,
		SecondaryModel:  secondary.ModelUsed,
	}
}
