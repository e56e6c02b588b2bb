// File: internal/config/workflow_config.go
// This file defines the WorkflowConfig struct: the target entry point, the
// CSS selectors of every control the signup and login sequences touch, and
// the pacing constants of the form-driving steps.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// WorkflowConfig describes the target site and how its forms are driven.
type WorkflowConfig struct {
	URL        string `mapstructure:"url" yaml:"url"`
	AuthCookie string `mapstructure:"auth_cookie" yaml:"auth_cookie"`

	// KeyDelay is the pause between two keystrokes when filling a field.
	KeyDelay time.Duration `mapstructure:"key_delay" yaml:"key_delay"`
	// PollInterval is the period of the submit-enabled check.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// ActionTimeout bounds every single wait or action.
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`

	Birthdate BirthdateConfig `mapstructure:"birthdate" yaml:"birthdate"`
	Selectors SelectorsConfig `mapstructure:"selectors" yaml:"selectors"`
}

// BirthdateConfig is the placeholder birthdate typed into every signup form.
// Month is the value of the <option> to select.
type BirthdateConfig struct {
	Day   string `mapstructure:"day" yaml:"day"`
	Month string `mapstructure:"month" yaml:"month"`
	Year  string `mapstructure:"year" yaml:"year"`
}

// SelectorsConfig holds the CSS selectors used by the signup and login steps.
type SelectorsConfig struct {
	// Signup form.
	OpenSignup            string `mapstructure:"open_signup" yaml:"open_signup"`
	SignupLogin           string `mapstructure:"signup_login" yaml:"signup_login"`
	SignupPassword        string `mapstructure:"signup_password" yaml:"signup_password"`
	SignupPasswordConfirm string `mapstructure:"signup_password_confirm" yaml:"signup_password_confirm"`
	BirthDay              string `mapstructure:"birth_day" yaml:"birth_day"`
	BirthMonth            string `mapstructure:"birth_month" yaml:"birth_month"`
	BirthYear             string `mapstructure:"birth_year" yaml:"birth_year"`
	EmailToggle           string `mapstructure:"email_toggle" yaml:"email_toggle"`
	Email                 string `mapstructure:"email" yaml:"email"`
	SignupSubmit          string `mapstructure:"signup_submit" yaml:"signup_submit"`
	SkipEmailVerification string `mapstructure:"skip_email_verification" yaml:"skip_email_verification"`
	SkipPhoneVerification string `mapstructure:"skip_phone_verification" yaml:"skip_phone_verification"`

	// Login form.
	LoginLogin    string `mapstructure:"login_login" yaml:"login_login"`
	LoginPassword string `mapstructure:"login_password" yaml:"login_password"`
	LoginSubmit   string `mapstructure:"login_submit" yaml:"login_submit"`

	// LoggedInMarker appears once a session is established.
	LoggedInMarker string `mapstructure:"logged_in_marker" yaml:"logged_in_marker"`
}

func setWorkflowDefaults(v *viper.Viper) {
	v.SetDefault("workflow.url", "")
	v.SetDefault("workflow.auth_cookie", "auth-token")
	v.SetDefault("workflow.key_delay", "20ms")
	v.SetDefault("workflow.poll_interval", "200ms")
	v.SetDefault("workflow.action_timeout", "50m")
	v.SetDefault("workflow.navigation_timeout", "90s")

	v.SetDefault("workflow.birthdate.day", "11")
	v.SetDefault("workflow.birthdate.month", "1")
	v.SetDefault("workflow.birthdate.year", "1990")

	v.SetDefault("workflow.selectors.open_signup", "#signup-tab")
	v.SetDefault("workflow.selectors.signup_login", "#signup-username")
	v.SetDefault("workflow.selectors.signup_password", "#signup-password")
	v.SetDefault("workflow.selectors.signup_password_confirm", "#signup-password-confirm")
	v.SetDefault("workflow.selectors.birth_day", "#birthday-day")
	v.SetDefault("workflow.selectors.birth_month", "#birthday-month")
	v.SetDefault("workflow.selectors.birth_year", "#birthday-year")
	v.SetDefault("workflow.selectors.email_toggle", "#signup-email-toggle")
	v.SetDefault("workflow.selectors.email", "#signup-email")
	v.SetDefault("workflow.selectors.signup_submit", "#signup-submit")
	v.SetDefault("workflow.selectors.skip_email_verification", "#skip-email-verification")
	v.SetDefault("workflow.selectors.skip_phone_verification", "#skip-phone-verification")
	v.SetDefault("workflow.selectors.login_login", "#login-username")
	v.SetDefault("workflow.selectors.login_password", "#login-password")
	v.SetDefault("workflow.selectors.login_submit", "#login-submit")
	v.SetDefault("workflow.selectors.logged_in_marker", "#account-menu")
}

// Validate checks the workflow settings.
func (w *WorkflowConfig) Validate() error {
	if w.URL == "" {
		return fmt.Errorf("workflow.url is required")
	}
	if w.AuthCookie == "" {
		return fmt.Errorf("workflow.auth_cookie is required")
	}
	if w.KeyDelay < 0 {
		return fmt.Errorf("workflow.key_delay must not be negative")
	}
	if w.PollInterval <= 0 {
		return fmt.Errorf("workflow.poll_interval must be a positive duration")
	}
	if w.ActionTimeout <= 0 || w.NavigationTimeout <= 0 {
		return fmt.Errorf("workflow.action_timeout and workflow.navigation_timeout must be positive durations")
	}
	if w.Birthdate.Day == "" || w.Birthdate.Month == "" || w.Birthdate.Year == "" {
		return fmt.Errorf("workflow.birthdate.day, month and year are required")
	}

	s := w.Selectors
	required := map[string]string{
		"open_signup":             s.OpenSignup,
		"signup_login":            s.SignupLogin,
		"signup_password":         s.SignupPassword,
		"signup_password_confirm": s.SignupPasswordConfirm,
		"birth_day":               s.BirthDay,
		"birth_month":             s.BirthMonth,
		"birth_year":              s.BirthYear,
		"email_toggle":            s.EmailToggle,
		"email":                   s.Email,
		"signup_submit":           s.SignupSubmit,
		"skip_email_verification": s.SkipEmailVerification,
		"skip_phone_verification": s.SkipPhoneVerification,
		"login_login":             s.LoginLogin,
		"login_password":          s.LoginPassword,
		"login_submit":            s.LoginSubmit,
		"logged_in_marker":        s.LoggedInMarker,
	}
	for key, sel := range required {
		if sel == "" {
			return fmt.Errorf("workflow.selectors.%s is required", key)
		}
	}
	return nil
}
