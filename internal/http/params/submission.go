package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/render"
)

// ErrMissingUser в запросе нет раздела user
var ErrMissingUser = errors.New("missing user section")

// Submission отправленная форма: поля учетной записи и поля платежного виджета
type Submission struct {
	User        map[string]string
	StripeEmail string
	StripeToken string
}

type jsonSubmission struct {
	User        map[string]any `json:"user"`
	StripeEmail string         `json:"stripeEmail"`
	StripeToken string         `json:"stripeToken"`
}

// Decode читает форму из JSON или application/x-www-form-urlencoded тела.
// В urlencoded форме поля учетной записи передаются как user[email].
func Decode(r *http.Request) (*Submission, error) {
	const op = "params.Decode"

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		sub, err := decodeForm(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return sub, nil
	default:
		sub, err := decodeJSON(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return sub, nil
	}
}

func decodeJSON(r *http.Request) (*Submission, error) {
	var req jsonSubmission
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		return nil, err
	}
	if req.User == nil {
		return nil, ErrMissingUser
	}
	user := make(map[string]string, len(req.User))
	for k, v := range req.User {
		switch val := v.(type) {
		case string:
			user[k] = val
		case nil:
			user[k] = ""
		default:
			raw, err := json.Marshal(val)
			if err != nil {
				return nil, err
			}
			user[k] = string(raw)
		}
	}
	return &Submission{User: user, StripeEmail: req.StripeEmail, StripeToken: req.StripeToken}, nil
}

func decodeForm(r *http.Request) (*Submission, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	var user map[string]string
	for key, values := range r.PostForm {
		if !strings.HasPrefix(key, "user[") || !strings.HasSuffix(key, "]") {
			continue
		}
		field := strings.TrimSuffix(strings.TrimPrefix(key, "user["), "]")
		if field == "" {
			continue
		}
		if user == nil {
			user = make(map[string]string)
		}
		if len(values) > 0 {
			user[field] = values[0]
		}
	}
	if user == nil {
		return nil, ErrMissingUser
	}
	return &Submission{
		User:        user,
		StripeEmail: r.PostForm.Get("stripeEmail"),
		StripeToken: r.PostForm.Get("stripeToken"),
	}, nil
}

// ApplyPaymentCapture переносит поля платежного виджета в поля учетной записи:
// email из виджета всегда заменяет email формы, токен карты попадает в stripe_token.
func ApplyPaymentCapture(sub *Submission) {
	if sub.User == nil {
		sub.User = make(map[string]string)
	}
	sub.User[FieldEmail] = sub.StripeEmail
	sub.User[FieldStripeToken] = sub.StripeToken
}
