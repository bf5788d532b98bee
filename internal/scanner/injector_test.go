package scanner

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/Serdar715/shadowx/internal/config"
)

func TestBuildTestURL(t *testing.T) {
	payload := `<b>"x"</b>`

	tests := []struct {
		name   string
		target string
		point  config.InjectionPoint
		want   string
	}{
		{
			name:   "query param replaced in place",
			target: "http://t.test/s?a=1&q=old&b=2&q=dup#top",
			point:  config.InjectionPoint{Kind: config.PointQueryParam, Param: "q"},
			want:   "http://t.test/s?a=1&q=%3Cb%3E%22x%22%3C%2Fb%3E&b=2#top",
		},
		{
			name:   "semicolon separated pair replaced",
			target: "http://t.test/s?a=1;b=2",
			point:  config.InjectionPoint{Kind: config.PointQueryParam, Param: "b"},
			want:   "http://t.test/s?a=1&b=%3Cb%3E%22x%22%3C%2Fb%3E",
		},
		{
			name:   "query param appended",
			target: "http://t.test/s?a=1",
			point:  config.InjectionPoint{Kind: config.PointQueryParam, Param: "q"},
			want:   "http://t.test/s?a=1&q=%3Cb%3E%22x%22%3C%2Fb%3E",
		},
		{
			name:   "fragment is raw",
			target: "http://t.test/page?x=1#old",
			point:  config.InjectionPoint{Kind: config.PointFragment},
			want:   `http://t.test/page?x=1#<b>"x"</b>`,
		},
		{
			name:   "path segment",
			target: "http://t.test/app/?x=1",
			point:  config.InjectionPoint{Kind: config.PointPath},
			want:   `http://t.test/app/<b>"x"</b>?x=1`,
		},
		{
			name:   "path on bare host",
			target: "http://t.test",
			point:  config.InjectionPoint{Kind: config.PointPath},
			want:   `http://t.test/<b>"x"</b>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildTestURL(tt.target, payload, tt.point)
			if err != nil {
				t.Fatalf("BuildTestURL: %v", err)
			}
			if got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestBuildTestURLReplacesEveryEnumeratedParam(t *testing.T) {
	target := "http://t.test/s?a=1;b=2&c=3"
	for _, name := range queryParamNames("a=1;b=2&c=3") {
		got, err := BuildTestURL(target, "X", config.InjectionPoint{Kind: config.PointQueryParam, Param: name})
		if err != nil {
			t.Fatal(err)
		}
		u, err := url.Parse(got)
		if err != nil {
			t.Fatal(err)
		}
		if n := len(strings.FieldsFunc(u.RawQuery, isQuerySep)); n != 3 {
			t.Errorf("%s: %s has %d pairs, want 3", name, got, n)
		}
		if !strings.Contains(u.RawQuery, name+"=X") {
			t.Errorf("%s: value not set in %s", name, got)
		}
	}
}

func TestBuildTestURLRejectsFormPoint(t *testing.T) {
	_, err := BuildTestURL("http://t.test", "x", config.InjectionPoint{Kind: config.PointFormField})
	if !errors.Is(err, ErrInjectionFailed) {
		t.Errorf("err = %v", err)
	}
}

func TestInjectNavigates(t *testing.T) {
	fb := &fakeBrowser{}
	res := NewInjector().Inject(context.Background(), fb, "http://t.test/?q=1", "P", config.InjectionPoint{Kind: config.PointQueryParam, Param: "q"})

	if res.Status != InjectContinue {
		t.Fatalf("status = %s, err = %v", res.Status, res.Err)
	}
	if len(fb.navigated) != 1 || fb.navigated[0] != "http://t.test/?q=P" {
		t.Errorf("navigated = %v", fb.navigated)
	}
}

func TestInjectNavigationFailure(t *testing.T) {
	fb := &fakeBrowser{navErr: context.DeadlineExceeded}
	res := NewInjector().Inject(context.Background(), fb, "http://t.test/", "P", config.InjectionPoint{Kind: config.PointPath})
	if res.Status != InjectFailed || res.Err == nil {
		t.Errorf("status = %s, err = %v", res.Status, res.Err)
	}
}

func TestInjectReportsDialog(t *testing.T) {
	points := []config.InjectionPoint{
		{Kind: config.PointQueryParam, Param: "q"},
		{Kind: config.PointFragment},
		{Kind: config.PointPath},
		{Kind: config.PointFormField},
	}
	for _, point := range points {
		t.Run(string(point.Kind), func(t *testing.T) {
			form := &fakeForm{fields: []*fakeElement{{typ: "text"}}}
			fb := &fakeBrowser{forms: []*fakeForm{form}}
			form.onSubmit = func() { fb.dialogs = append(fb.dialogs, "xss") }
			fb.onNavigate = func(fb *fakeBrowser, url string) { fb.dialogs = append(fb.dialogs, "xss") }

			res := NewInjector().Inject(context.Background(), fb, "http://t.test/?q=1", "P", point)
			if res.Status != InjectDialog || res.Dialog != "xss" {
				t.Errorf("got %s %q, want dialog", res.Status, res.Dialog)
			}
		})
	}
}

func TestInjectFormResilience(t *testing.T) {
	fields := []*fakeElement{
		{typ: "text"},
		{typ: "email"},
		{typ: "text", fillErr: errBroken},
		{typ: ""},
		{typ: "search"},
	}
	form := &fakeForm{fields: fields, control: &fakeElement{typ: "submit"}}
	fb := &fakeBrowser{forms: []*fakeForm{form}}

	res := NewInjector().Inject(context.Background(), fb, "http://t.test/", "PAYLOAD", config.InjectionPoint{Kind: config.PointFormField})

	if res.Status != InjectContinue {
		t.Fatalf("status = %s, err = %v", res.Status, res.Err)
	}
	for i, f := range fields {
		filled := f.value == "PAYLOAD"
		if want := i != 2; filled != want {
			t.Errorf("field %d filled = %v, want %v", i+1, filled, want)
		}
	}
	if !form.control.clicked {
		t.Error("form was not submitted")
	}
	if len(res.ElementFails) != 1 || !errors.Is(res.ElementFails[0], ErrElementInteraction) {
		t.Errorf("element failures = %v", res.ElementFails)
	}
}

func TestInjectFormSkipsControls(t *testing.T) {
	hidden := &fakeElement{typ: "hidden", value: "csrf"}
	button := &fakeElement{typ: "button"}
	text := &fakeElement{typ: "text"}
	form := &fakeForm{fields: []*fakeElement{hidden, button, text}}
	fb := &fakeBrowser{forms: []*fakeForm{form}}

	NewInjector().Inject(context.Background(), fb, "http://t.test/", "P", config.InjectionPoint{Kind: config.PointFormField})

	if hidden.value != "csrf" || button.value != "" || text.value != "P" {
		t.Errorf("hidden=%q button=%q text=%q", hidden.value, button.value, text.value)
	}
	if !form.submitted {
		t.Error("form without a control must be submitted directly")
	}
}

func TestInjectFormContinuesAfterFailedForm(t *testing.T) {
	bad := &fakeForm{
		fields:    []*fakeElement{{typ: "text"}},
		control:   &fakeElement{clickErr: errBroken},
		submitErr: errBroken,
	}
	good := &fakeForm{fields: []*fakeElement{{typ: "text"}}, control: &fakeElement{}}
	third := &fakeForm{fields: []*fakeElement{{typ: "text"}}, control: &fakeElement{}}
	fb := &fakeBrowser{forms: []*fakeForm{bad, good, third}}

	res := NewInjector().Inject(context.Background(), fb, "http://t.test/", "P", config.InjectionPoint{Kind: config.PointFormField})

	if res.Status != InjectContinue {
		t.Fatalf("status = %s", res.Status)
	}
	if !good.control.clicked {
		t.Error("second form should have been submitted")
	}
	if third.control.clicked || third.fields[0].value != "" {
		t.Error("walk must stop after the first submitted form")
	}
}

func TestInjectFormNoForms(t *testing.T) {
	res := NewInjector().Inject(context.Background(), &fakeBrowser{}, "http://t.test/", "P", config.InjectionPoint{Kind: config.PointFormField})
	if res.Status != InjectFailed {
		t.Errorf("status = %s", res.Status)
	}
}
