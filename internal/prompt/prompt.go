// Package prompt assembles the Persian prompts for each generation phase.
// The content rules travel with every prompt; the task section varies by
// phase (introduction, body section, structure plan, repair).
package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tahrir-ai/tahrir/internal/passage"
)

// RulesBlock carries the mandatory content rules included in every
// generation prompt.
const RulesBlock = `🔻 قوانین تولید محتوا (الزامی):

📌 عنوان H1: حتما شامل کلمه کلیدی اصلی باشد و دقیقا در ابتدای عنوان بیاید ، در ادامه یک عبارت ترغیب کننده شامل اعداد یا «صفر تا صد» یا «گام به گام» بیاید.
📌 پاراگراف آغازین: 3 الی 4 خط و دقیقا با خود کلمه کلیدی شروع شود.
📌 تیترها: تمام تیترها با تگ H2 نوشته شوند مگر اینکه به لحاظ معنایی زیرمجموعه تیتر قبلی باشند (در آن صورت H3).
📌 پاراگراف ها: هر پاراگراف 3 الی 4 خط و یک ایده اصلی داشته باشد.
📌 جدول: از جدول با فونت IRANSansWeb و اطلاعات مفید و مقایسه ای استفاده شود.
📌 توزیع کلمه کلیدی: کلمه کلیدی با پراکندگی طبیعی بیاید ، تقریبا یک بار در هر پاراگراف ، نه پشت سر هم و مصنوعی.
📌 نگارش: فاصله مناسب فارسی رعایت شود: می شود ، می تواند ، راه ها ، راهکار های ، جا به جا ، طراحی سایت. بین کاما و کلمات قبل و بعد فاصله باشد.
📌 لحن: انسانی و کمی دوستانه ، در بعضی قسمت ها هیجانی ، همراه با مثال و آمار ، با هدف ترغیب کاربر.`

// ContextBlock renders the selected passages as a citation block.
func ContextBlock(passages []passage.Passage) string {
	if len(passages) == 0 {
		return ""
	}
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		header := fmt.Sprintf("--- منبع: [%s]", p.SourceID)
		if p.SectionLabel != "" {
			header += fmt.Sprintf(" (بخش: %s)", p.SectionLabel)
		}
		parts = append(parts, header+"\n"+p.Text)
	}
	return strings.Join(parts, "\n\n")
}

// nextFocusMarker labels the guidance line the introduction phase emits for
// body planning.
const nextFocusMarker = "NEXT_FOCUS:"

// Introduction builds the phase-one prompt: one H1 heading, exactly three
// introduction paragraphs, and a hidden guidance line for the next phase.
func Introduction(kw, contextBlock string) string {
	var b strings.Builder
	b.WriteString(RulesBlock)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "🎯 کلمه کلیدی اصلی: %s\n", kw)
	if contextBlock != "" {
		b.WriteString("📚 داده های بازیابی شده (فقط از این منابع برای الهام گیری و استناد استفاده کن):\n")
		b.WriteString(contextBlock)
		b.WriteString("\n\n")
	}
	b.WriteString("🔍 وظیفه: بخش مقدمه مقاله را تولید کن.\n")
	b.WriteString("📌 خروجی مورد نیاز (فقط HTML خالص ، بدون کد بلاک):\n")
	fmt.Fprintf(&b, "1. <h1>عنوان H1 شامل «%s» + عبارت ترغیب کننده</h1>\n", kw)
	fmt.Fprintf(&b, "2. دقیقا سه پاراگراف <p> سه الی چهار خطی که پاراگراف اول دقیقا با «%s» شروع شود\n", kw)
	b.WriteString("3. جدول اضافه نکن\n")
	fmt.Fprintf(&b, "4. در انتها یک خط با فرمت «%s توضیح کوتاه تمرکز بخش بعدی» بنویس\n", nextFocusMarker)
	return b.String()
}

// ExtractNextFocus pulls the guidance line out of the introduction output.
// Missing markers fall back to a generic continuation note.
var nextFocusRe = regexp.MustCompile(nextFocusMarker + `\s*(.+)`)

func ExtractNextFocus(text string) string {
	if m := nextFocusRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return "ادامه موضوع با جزئیات بیشتر ، مثال های عملی و راهکار های کاربردی"
}

// Section builds a body-section prompt.
func Section(kw, title string, level int, needsTable bool, minWords int, guidance, contextBlock string) string {
	if level < 2 || level > 4 {
		level = 2
	}

	var b strings.Builder
	b.WriteString(RulesBlock)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "🎯 کلمه کلیدی اصلی: %s\n", kw)
	fmt.Fprintf(&b, "🎯 بخش کنونی: %s (سطح %d)\n", title, level)
	if guidance != "" {
		fmt.Fprintf(&b, "📝 راهنمای پیوستگی با بخش های قبل: %s\n", guidance)
	}
	if contextBlock != "" {
		b.WriteString("📚 داده های بازیابی شده (حتما از این منابع استفاده کن):\n")
		b.WriteString(contextBlock)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "📌 وظیفه: <h%d>%s</h%d> را تولید کن و محتوای جامع این بخش را بنویس.\n", level, title, level)
	fmt.Fprintf(&b, " - حداقل %d کلمه محتوای جدید برای این بخش\n", minWords)
	b.WriteString(" - فقط برای همین بخش محتوا تولید کن ، تکرار بخش های قبلی نکن\n")
	fmt.Fprintf(&b, " - کلمه کلیدی «%s» را به طور طبیعی در محتوا استفاده کن\n", kw)
	if needsTable {
		b.WriteString(" - یک جدول مفید و مرتبط با استایل فونت IRANSansWeb اضافه کن\n")
	} else {
		b.WriteString(" - جدول اضافه نکن\n")
	}
	b.WriteString(" - خروجی فقط HTML خالص باشد\n")
	return b.String()
}

// StructurePlan asks the model for the planned body sections as JSON.
func StructurePlan(kw string, sectionCount int, guidance, contextBlock string) string {
	var b strings.Builder
	b.WriteString(RulesBlock)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "🎯 کلمه کلیدی اصلی: %s\n", kw)
	if guidance != "" {
		fmt.Fprintf(&b, "📝 راهنمای مقدمه برای ادامه مقاله: %s\n", guidance)
	}
	if contextBlock != "" {
		b.WriteString("📚 داده های بازیابی شده:\n")
		b.WriteString(contextBlock)
		b.WriteString("\n\n")
	}
	b.WriteString("🔍 وظیفه: ساختار بدنه مقاله را به صورت JSON تولید کن:\n")
	b.WriteString(`{"sections": [{"title": "تیتر بخش", "needs_table": false}]}` + "\n")
	fmt.Fprintf(&b, "⚠️ دقیقا %d بخش پیشنهاد کن ، حداقل دو بخش مناسب جدول (مقایسه ، مزایا ، مراحل ، آمار) باشد ، خروجی فقط JSON معتبر باشد.\n", sectionCount)
	return b.String()
}

// dimensionDirectives translate weak scoring dimensions into concrete
// repair instructions.
var dimensionDirectives = map[string]string{
	"word_count":      "محتوا کوتاه است ، بخش های مفید و مثال های بیشتری اضافه کن تا به حداقل طول برسد",
	"keyword_density": "توزیع کلمه کلیدی را طبیعی و متعادل کن ، تقریبا یک بار در هر پاراگراف",
	"typography":      "قوانین نگارشی فارسی را اصلاح کن: می شود ، می تواند ، راه ها ، فاصله کاما",
	"structure":       "ساختار را کامل کن: یک H1 ، تیترهای H2 کافی ، جدول های مفید و پاراگراف های کوتاه",
	"engagement":      "لحن را انسانی و ترغیب کننده کن ، سوال ، مثال عملی و آمار اضافه کن",
	"completeness":    "پوشش موضوعی را کامل کن ، جنبه های پوشش داده نشده موضوع را در بخش های مناسب اضافه کن",
}

// Repair builds the single improvement-pass prompt, naming the weakest
// dimensions as explicit targets.
func Repair(kw, html string, weakDimensions []string, minWords int) string {
	var b strings.Builder
	b.WriteString(RulesBlock)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "🎯 کلمه کلیدی اصلی: %s\n", kw)
	b.WriteString("🔍 وظیفه: مقاله HTML زیر را به عنوان ویرایشگر حرفه ای بازبینی و بهبود بده.\n")
	b.WriteString("📌 اولویت های بهبود:\n")
	for _, dim := range weakDimensions {
		if directive, ok := dimensionDirectives[dim]; ok {
			fmt.Fprintf(&b, " - %s\n", directive)
		}
	}
	fmt.Fprintf(&b, " - کل مقاله حداقل %d کلمه باشد\n", minWords)
	b.WriteString(" - خروجی فقط HTML کامل و بهبود یافته مقاله باشد ، بدون کد بلاک و بدون توضیح اضافه\n\n")
	fmt.Fprintf(&b, "📄 مقاله فعلی:\n%s\n", html)
	return b.String()
}
