package scanner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Serdar715/shadowx/internal/browser"
	"github.com/Serdar715/shadowx/internal/config"
)

// InjectStatus is the outcome of one injection attempt.
type InjectStatus int

const (
	// InjectFailed means no injection path could be attempted
	InjectFailed InjectStatus = iota
	// InjectContinue means the payload was placed; collect evidence next
	InjectContinue
	// InjectDialog means a dialog opened during injection
	InjectDialog
)

func (s InjectStatus) String() string {
	switch s {
	case InjectContinue:
		return "continue"
	case InjectDialog:
		return "dialog"
	default:
		return "failed"
	}
}

// InjectResult carries the status, the dialog text for InjectDialog, the
// cause for InjectFailed and the per-element faults that were swallowed.
type InjectResult struct {
	Status       InjectStatus
	Dialog       string
	Err          error
	ElementFails []error
}

// skipTypes are form controls that are never filled
var skipTypes = map[string]bool{
	"submit": true,
	"button": true,
	"hidden": true,
}

// Injector places an armed payload at an injection point.
type Injector struct{}

// NewInjector creates an injector.
func NewInjector() *Injector {
	return &Injector{}
}

// Inject materializes payload at point. For URL points it navigates to the
// built URL; for form_field it fills the forms of the current page.
func (inj *Injector) Inject(ctx context.Context, b browser.Browser, target, payload string, point config.InjectionPoint) InjectResult {
	var res InjectResult

	switch point.Kind {
	case config.PointQueryParam, config.PointFragment, config.PointPath:
		testURL, err := BuildTestURL(target, payload, point)
		if err != nil {
			return InjectResult{Status: InjectFailed, Err: err}
		}
		if err := b.Navigate(ctx, testURL); err != nil {
			// A dialog may have fired before the load deadline
			if text, ok := b.PendingDialog(); ok {
				return InjectResult{Status: InjectDialog, Dialog: text}
			}
			return InjectResult{Status: InjectFailed, Err: err}
		}
		res.Status = InjectContinue

	case config.PointFormField:
		res = inj.fillForms(ctx, b, payload)
		if res.Status == InjectFailed {
			return res
		}

	default:
		return InjectResult{Status: InjectFailed, Err: fmt.Errorf("%w: unsupported point %s", ErrInjectionFailed, point.Kind)}
	}

	if text, ok := b.PendingDialog(); ok {
		res.Status = InjectDialog
		res.Dialog = text
	}
	return res
}

// fillForms fills every fillable field of each form, then submits. Faults
// are recorded per element and per form; the first submitted form ends the
// walk.
func (inj *Injector) fillForms(ctx context.Context, b browser.Browser, payload string) InjectResult {
	forms, err := b.Forms(ctx)
	if err != nil {
		return InjectResult{Status: InjectFailed, Err: err}
	}
	if len(forms) == 0 {
		return InjectResult{Status: InjectFailed, Err: fmt.Errorf("%w: no forms on page", ErrInjectionFailed)}
	}

	res := InjectResult{Status: InjectContinue}
	for i, form := range forms {
		fields, err := form.Fields()
		if err != nil {
			res.ElementFails = append(res.ElementFails, fmt.Errorf("%w: form %d fields: %v", ErrElementInteraction, i, err))
		}
		for j, field := range fields {
			if skipTypes[field.Type()] {
				continue
			}
			if err := field.Fill(payload); err != nil {
				res.ElementFails = append(res.ElementFails, fmt.Errorf("%w: form %d field %d: %v", ErrElementInteraction, i, j, err))
			}
		}

		if err := submit(form); err != nil {
			res.ElementFails = append(res.ElementFails, fmt.Errorf("%w: form %d submit: %v", ErrElementInteraction, i, err))
			continue
		}
		return res
	}
	return res
}

// submit clicks the first submit control, or submits the form directly
// when there is none or the click fails.
func submit(form browser.Form) error {
	control, err := form.SubmitControl()
	if err == nil {
		if err = control.Click(); err == nil {
			return nil
		}
	}
	if subErr := form.Submit(); subErr != nil {
		if err != nil && !errors.Is(err, browser.ErrNoSubmitControl) {
			return fmt.Errorf("click: %v; submit: %w", err, subErr)
		}
		return subErr
	}
	return nil
}

// BuildTestURL returns the navigation URL for a URL-based injection point.
func BuildTestURL(target, payload string, point config.InjectionPoint) (string, error) {
	switch point.Kind {
	case config.PointFragment:
		// Unencoded so markup and script metacharacters reach the page
		base, _, _ := strings.Cut(target, "#")
		return base + "#" + payload, nil

	case config.PointQueryParam:
		u, err := url.Parse(target)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInjectionFailed, err)
		}
		if point.Param == "" {
			return "", fmt.Errorf("%w: query_param without a name", ErrInjectionFailed)
		}
		u.RawQuery = upsertQuery(u.RawQuery, point.Param, payload)
		return u.String(), nil

	case config.PointPath:
		u, err := url.Parse(target)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInjectionFailed, err)
		}
		var sb strings.Builder
		sb.WriteString(u.Scheme)
		sb.WriteString("://")
		sb.WriteString(u.Host)
		sb.WriteString(strings.TrimRight(u.EscapedPath(), "/"))
		sb.WriteByte('/')
		sb.WriteString(payload)
		if u.RawQuery != "" {
			sb.WriteByte('?')
			sb.WriteString(u.RawQuery)
		}
		if u.Fragment != "" {
			sb.WriteByte('#')
			sb.WriteString(u.EscapedFragment())
		}
		return sb.String(), nil
	}
	return "", fmt.Errorf("%w: %s is not a URL point", ErrInjectionFailed, point.Kind)
}

// upsertQuery sets name to value, keeping the position of its first
// occurrence and dropping repeats. A missing name is appended. Pairs split
// on the same separators as queryParamNames and are rejoined with '&'.
func upsertQuery(rawQuery, name, value string) string {
	pair := url.QueryEscape(name) + "=" + url.QueryEscape(value)

	var out []string
	replaced := false
	for _, part := range strings.FieldsFunc(rawQuery, isQuerySep) {
		key, _, _ := strings.Cut(part, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if key == name {
			if !replaced {
				out = append(out, pair)
				replaced = true
			}
			continue
		}
		out = append(out, part)
	}
	if !replaced {
		out = append(out, pair)
	}
	return strings.Join(out, "&")
}
