// Package keyword expands a topic keyword into alternate Persian phrasings.
// Variations widen retrieval matching and feed the topical-completeness
// scorer; the expansion is static and deterministic.
package keyword

import "strings"

// substitutions are applied wherever the left term appears in the keyword.
var substitutions = [][2]string{
	{"طراحی", "ساخت"},
	{"طراحی", "ایجاد"},
	{"سایت", "وب سایت"},
	{"سایت", "پورتال"},
	{"پزشکی", "درمانی"},
	{"پزشکی", "کلینیکی"},
	{"امنیت", "حفاظت"},
	{"امنیت", "ایمنی"},
	{"وردپرس", "سیستم مدیریت محتوا"},
}

// related adds topic terms for contained phrases, in fixed order so that
// repeated expansion of the same keyword is identical.
var related = []struct {
	phrase string
	terms  []string
}{
	{"طراحی سایت", []string{"سئو سایت", "بهینه سازی سایت", "راه اندازی سایت", "توسعه وب"}},
	{"سئو", []string{"بهینه سازی موتور جست و جو", "رتبه بندی گوگل", "بازاریابی دیجیتال"}},
	{"امنیت سایت", []string{"امنیت وب سایت", "حفاظت سایت", "امنیت آنلاین", "امنیت دیجیتال"}},
	{"وردپرس", []string{"امنیت وردپرس", "حفاظت وردپرس"}},
}

// templates always apply, guaranteeing at least five variations.
var templates = []string{
	"آموزش %s",
	"راهنمای %s",
	"%s چیست",
	"بهترین روش های %s",
	"نکات مهم %s",
}

// Variations returns an ordered, de-duplicated list of alternate phrasings
// for the keyword. The list never includes the keyword itself and always
// contains at least five entries.
func Variations(kw string) []string {
	kw = strings.TrimSpace(kw)
	if kw == "" {
		return nil
	}

	var out []string
	seen := map[string]bool{kw: true}
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	}

	for _, sub := range substitutions {
		if strings.Contains(kw, sub[0]) {
			add(strings.ReplaceAll(kw, sub[0], sub[1]))
		}
	}

	for _, r := range related {
		if !strings.Contains(kw, r.phrase) {
			continue
		}
		for _, t := range r.terms {
			add(t)
		}
	}

	for _, tmpl := range templates {
		add(strings.Replace(tmpl, "%s", kw, 1))
	}

	return out
}
