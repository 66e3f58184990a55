package validation

import (
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("fetch_url", validateFetchURL)
}

// ValidateURLs checks that every entry is an absolute http(s) URL with a
// host. The first invalid entry aborts the whole ingest; a malformed list
// is a data error, not a per-task failure.
func ValidateURLs(urls []string) error {
	for _, u := range urls {
		if err := validate.Var(u, "required,fetch_url"); err != nil {
			return fmt.Errorf("invalid URL %q: %w", u, err)
		}
	}
	return nil
}

func validateFetchURL(fl validator.FieldLevel) bool {
	urlStr := fl.Field().String()

	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	if u.Host == "" {
		return false
	}

	return true
}
