// Package codec converts external control-assessment payloads into the
// canonical domain shape. Three dialects are accepted: the canonical
// snake_case JSON, the legacy PascalCase export (ControlID, ControlPassFail,
// ConfidenceScore as percentage), and raw DynamoDB attribute-value maps.
package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

// field aliases, keyed by the lower-cased name with underscores removed
var (
	idKeys         = []string{"controlid", "id"}
	titleKeys      = []string{"title", "controltitle"}
	scoreKeys      = []string{"confidencescore", "confidence", "score"}
	passFailKeys   = []string{"passfail", "controlpassfail", "result"}
	statusKeys     = []string{"status", "controlstatus"}
	reasonKeys     = []string{"reasonornotes", "controlpassfailreason", "reason", "notes"}
	analysisKeys   = []string{"aianalysis", "analysis"}
	suggestionKeys = []string{"aisuggestion"}
	decidedByKeys  = []string{"decidedby"}
	decidedAtKeys  = []string{"decidedat"}
	listKeys       = []string{"controls", "items", "assessments"}
)

// EncodeControls writes the canonical JSON form.
func EncodeControls(controls []domain.ControlAssessment) ([]byte, error) {
	if controls == nil {
		controls = []domain.ControlAssessment{}
	}
	return json.Marshal(controls)
}

// DecodeControls reads any supported dialect. An empty payload yields an
// empty list.
func DecodeControls(raw []byte) ([]domain.ControlAssessment, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return []domain.ControlAssessment{}, nil
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode controls: %w", err)
	}
	doc = unwrapAttributeValues(doc)

	items, err := asList(doc)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ControlAssessment, 0, len(items))
	scores := make([]float64, 0, len(items))
	explicit := make([]bool, 0, len(items))
	for i, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decode controls: item %d is not an object", i)
		}
		fields := normalizeKeys(obj)
		c, score, pct, err := decodeOne(fields)
		if err != nil {
			return nil, fmt.Errorf("decode controls: item %d: %w", i, err)
		}
		out = append(out, c)
		scores = append(scores, score)
		explicit = append(explicit, pct)
	}

	// a batch of bare numbers with any above 1 but none above 100 is a
	// percentage export
	above, inRange := false, true
	for i, s := range scores {
		if explicit[i] {
			continue
		}
		if s > 1 {
			above = true
		}
		if s < 0 || s > 100 {
			inRange = false
		}
	}
	percent := above && inRange
	for i := range out {
		s := scores[i]
		if explicit[i] || percent {
			s = s / 100
		}
		out[i].ConfidenceScore = math.Round(s*1e6) / 1e6
	}
	return out, nil
}

func asList(doc any) ([]any, error) {
	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		fields := normalizeKeys(v)
		for _, k := range listKeys {
			if l, ok := fields[k].([]any); ok {
				return l, nil
			}
		}
		// a single assessment object
		if _, ok := lookup(fields, idKeys); ok {
			return []any{v}, nil
		}
	case nil:
		return []any{}, nil
	}
	return nil, fmt.Errorf("decode controls: expected a list of assessments")
}

func decodeOne(f map[string]any) (domain.ControlAssessment, float64, bool, error) {
	var c domain.ControlAssessment
	c.ControlID = str(f, idKeys)
	c.Title = str(f, titleKeys)

	score, pct, err := number(f, scoreKeys)
	if err != nil {
		return c, 0, false, err
	}

	pf := parsePassFail(str(f, passFailKeys))
	if pf == "" {
		// legacy records put pass/fail in "status"
		pf = parsePassFail(str(f, statusKeys))
	}
	if pf == "" {
		pf = domain.PassFailPending
	}
	c.PassFail = pf
	c.AISuggestion = parsePassFail(str(f, suggestionKeys))

	c.ReasonOrNotes = str(f, reasonKeys)
	if c.ReasonOrNotes == "" {
		c.ReasonOrNotes = str(f, analysisKeys)
	}
	c.DecidedBy = str(f, decidedByKeys)
	if at := str(f, decidedAtKeys); at != "" {
		t, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return c, 0, false, fmt.Errorf("decided_at: %w", err)
		}
		c.DecidedAt = &t
	}
	return c, score, pct, nil
}

func parsePassFail(s string) domain.PassFail {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass", "passed", "true", "yes":
		return domain.PassFailPass
	case "fail", "failed", "false", "no":
		return domain.PassFailFail
	case "pending":
		return domain.PassFailPending
	}
	return ""
}

func normalizeKeys(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[strings.ToLower(strings.ReplaceAll(k, "_", ""))] = v
	}
	return out
}

func lookup(f map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := f[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func str(f map[string]any, keys []string) string {
	v, ok := lookup(f, keys)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// number returns the score and whether it was explicitly written as a percentage.
func number(f map[string]any, keys []string) (float64, bool, error) {
	v, ok := lookup(f, keys)
	if !ok {
		return 0, false, fmt.Errorf("confidence score missing")
	}
	switch t := v.(type) {
	case float64:
		return t, false, nil
	case string:
		s := strings.TrimSpace(t)
		pct := strings.HasSuffix(s, "%")
		s = strings.TrimSuffix(s, "%")
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false, fmt.Errorf("confidence score %q: %w", t, err)
		}
		return n, pct, nil
	}
	return 0, false, fmt.Errorf("confidence score has type %T", v)
}
