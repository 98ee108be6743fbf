package submissions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxQuestionIDLength = 128
	MaxAnswerLength     = 4096
	MaxCommentLength    = 4096
)

// Answer is a single survey answer. On the wire it may be a bare string
// ("Yes") or an object carrying evidence references.
type Answer struct {
	Value       string      `json:"value"`
	EvidenceIDs []uuid.UUID `json:"evidence_ids,omitempty"`
	Comment     string      `json:"comment,omitempty"`
}

func (a *Answer) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = Answer{}
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = Answer{Value: s}
		return nil
	}
	type plain Answer
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return fmt.Errorf("answer must be a string or object: %w", err)
	}
	*a = Answer(p)
	return nil
}

// Responses maps question identifier to answer.
type Responses map[string]Answer

var ErrInvalidResponses = errors.New("invalid responses")

// Normalize trims question ids and answer values and drops empty keys.
func (r Responses) Normalize() Responses {
	out := make(Responses, len(r))
	for k, v := range r {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		v.Value = strings.TrimSpace(v.Value)
		v.Comment = strings.TrimSpace(v.Comment)
		out[key] = v
	}
	return out
}

// Validate reports every structural problem in the response set.
func (r Responses) Validate() error {
	var problems []string
	for _, k := range r.QuestionIDs() {
		v := r[k]
		switch {
		case strings.TrimSpace(k) == "":
			problems = append(problems, "empty question id")
		case utf8.RuneCountInString(k) > MaxQuestionIDLength:
			problems = append(problems, fmt.Sprintf("question id %.32q... exceeds %d characters", k, MaxQuestionIDLength))
		}
		if utf8.RuneCountInString(v.Value) > MaxAnswerLength {
			problems = append(problems, fmt.Sprintf("answer for %q exceeds %d characters", k, MaxAnswerLength))
		}
		if utf8.RuneCountInString(v.Comment) > MaxCommentLength {
			problems = append(problems, fmt.Sprintf("comment for %q exceeds %d characters", k, MaxCommentLength))
		}
		for _, id := range v.EvidenceIDs {
			if id == uuid.Nil {
				problems = append(problems, fmt.Sprintf("answer for %q references a nil evidence id", k))
				break
			}
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidResponses, strings.Join(problems, "; "))
}

// Value returns the answer value for questionID and whether it was present.
func (r Responses) Value(questionID string) (string, bool) {
	a, ok := r[questionID]
	if !ok {
		return "", false
	}
	return a.Value, true
}

// QuestionIDs returns the keys in sorted order.
func (r Responses) QuestionIDs() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone deep-copies the response set so a successor draft never aliases its parent.
func (r Responses) Clone() Responses {
	out := make(Responses, len(r))
	for k, v := range r {
		if len(v.EvidenceIDs) > 0 {
			v.EvidenceIDs = append([]uuid.UUID(nil), v.EvidenceIDs...)
		}
		out[k] = v
	}
	return out
}
