// Package validation checks user input before anything is sent upstream.
// Failures come back as *ValidationError and never reach the network.
package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/tbourn/emotionwise-web/internal/domain"
)

const (
	MinPasswordLen   = 8
	MaxDetectionText = 1000
	MaxComment       = 500
)

// ValidationError lists the problems found per field.
type ValidationError struct {
	Field    string   `json:"field"`
	Problems []string `json:"problems"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, strings.Join(e.Problems, "; "))
}

// Password enforces the password policy. All failed rules are reported.
func Password(pw string) error {
	var probs []string
	if utf8.RuneCountInString(pw) < MinPasswordLen {
		probs = append(probs, fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		probs = append(probs, "must contain an uppercase letter")
	}
	if !lower {
		probs = append(probs, "must contain a lowercase letter")
	}
	if !digit {
		probs = append(probs, "must contain a digit")
	}
	if len(probs) > 0 {
		return &ValidationError{Field: "password", Problems: probs}
	}
	return nil
}

// PasswordConfirmation checks that both entries match.
func PasswordConfirmation(pw, confirm string) error {
	if pw != confirm {
		return &ValidationError{Field: "confirm_password", Problems: []string{"passwords do not match"}}
	}
	return nil
}

var validate = validator.New()

// Email checks syntax only. The domain part must contain a dot.
func Email(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return &ValidationError{Field: "email", Problems: []string{"is required"}}
	}
	if err := validate.Var(addr, "required,email"); err != nil || !strings.Contains(addr[strings.LastIndex(addr, "@")+1:], ".") {
		return &ValidationError{Field: "email", Problems: []string{"is not a valid email address"}}
	}
	return nil
}

// Registration validates a sign-up form. confirm is ignored when empty.
func Registration(r domain.Registration, confirm string) error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Problems: []string{"is required"}}
	}
	if err := Email(r.Email); err != nil {
		return err
	}
	if err := Password(r.Password); err != nil {
		return err
	}
	if confirm != "" {
		return PasswordConfirmation(r.Password, confirm)
	}
	return nil
}

// Credentials validates a login form. Only presence is checked; policy is
// the server's concern for existing accounts.
func Credentials(email, password string) error {
	if err := Email(email); err != nil {
		return err
	}
	if password == "" {
		return &ValidationError{Field: "password", Problems: []string{"is required"}}
	}
	return nil
}

// DetectionText returns the trimmed text or a validation error.
func DetectionText(text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", &ValidationError{Field: "text", Problems: []string{"is required"}}
	}
	if n := utf8.RuneCountInString(t); n > MaxDetectionText {
		return "", &ValidationError{Field: "text", Problems: []string{
			fmt.Sprintf("must be at most %d characters (got %d)", MaxDetectionText, n),
		}}
	}
	return t, nil
}

// Comment checks the optional comment length.
func Comment(field, c string) error {
	if n := utf8.RuneCountInString(c); n > MaxComment {
		return &ValidationError{Field: field, Problems: []string{
			fmt.Sprintf("must be at most %d characters (got %d)", MaxComment, n),
		}}
	}
	return nil
}

// Labels normalizes suggested labels: trimmed, lowercased, blanks dropped,
// deduplicated in first-seen order. Unknown labels fail.
func Labels(field string, raw []string) ([]domain.EmotionLabel, error) {
	out := make([]domain.EmotionLabel, 0, len(raw))
	seen := make(map[domain.EmotionLabel]struct{}, len(raw))
	var bad []string
	for _, s := range raw {
		if strings.TrimSpace(s) == "" {
			continue
		}
		l, ok := domain.ParseLabel(s)
		if !ok {
			bad = append(bad, fmt.Sprintf("%q is not a known emotion", strings.TrimSpace(s)))
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	if len(bad) > 0 {
		return nil, &ValidationError{Field: field, Problems: bad}
	}
	return out, nil
}

// FeedbackInput is the raw feedback form.
type FeedbackInput struct {
	Text      string   `json:"text"`
	Predicted []string `json:"predicted_emotions"`
	Suggested []string `json:"suggested_emotions"`
	Comment   string   `json:"comment"`
	Language  string   `json:"language_code"`
}

// Feedback validates and normalizes a feedback form into a submission.
func Feedback(in FeedbackInput) (domain.FeedbackSubmission, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return domain.FeedbackSubmission{}, &ValidationError{Field: "text", Problems: []string{"is required"}}
	}
	predicted, err := Labels("predicted_emotions", in.Predicted)
	if err != nil {
		return domain.FeedbackSubmission{}, err
	}
	suggested, err := Labels("suggested_emotions", in.Suggested)
	if err != nil {
		return domain.FeedbackSubmission{}, err
	}
	comment := strings.TrimSpace(in.Comment)
	if err := Comment("comment", comment); err != nil {
		return domain.FeedbackSubmission{}, err
	}
	lang := strings.TrimSpace(in.Language)
	if lang != "" {
		tag, err := ParseLanguage(lang)
		if err != nil {
			return domain.FeedbackSubmission{}, err
		}
		lang = tag
	}
	return domain.FeedbackSubmission{
		Text:              text,
		PredictedEmotions: predicted,
		SuggestedEmotions: suggested,
		Comment:           comment,
		LanguageCode:      lang,
	}, nil
}
