package dialog

import (
	"fmt"
	"konspektbot/m/v2/app/models"
)

const (
	msgWelcome         = "Assalomu alaykum!\nQuyidagi menyudan tanlang:"
	msgChooseFromMenu  = "Quyidagi menyudan tanlang:"
	msgBlocked         = "⛔ Sizning profilingiz bloklangan."
	msgCancelled       = "Bekor qilindi."
	msgChooseSubject   = "Fan nomini tanlang:"
	msgEnterSubject    = "Iltimos, fan nomini matn ko‘rinishida kiriting:"
	msgChooseGrade     = "Sinfni tanlang:"
	msgInvalidGrade    = "❗ Sinf 1 dan 11 gacha bo‘lgan butun son bo‘lishi kerak. Qayta tanlang:"
	msgEnterTopic      = "Endi mavzuni kiriting:"
	msgEnterProblem    = "Muammo yoki savolingizni batafsil yozing:"
	msgSendBulkFile    = "Mavzular ro‘yxati bo‘lgan .xlsx yoki .csv fayl yuboring.\nBirinchi qatorda «Mavzu» ustuni bo‘lishi kerak."
	msgEmptyInput      = "❗ Bo‘sh xabar qabul qilinmaydi. Qayta kiriting:"
	msgStillGenerating = "⏳ Oldingi so‘rovingiz hali tayyorlanmoqda. Iltimos, kuting yoki «🔙 Bekor qilish» ni bosing."
	msgInternalError   = "⚠️ Xatolik yuz berdi. Birozdan so‘ng qayta urinib ko‘ring."
	msgRetryHint       = "\n\nQayta urinish uchun xabarni yana yuboring yoki «🔙 Bekor qilish» ni bosing."
	msgUnsupportedFile = "❌ Faqat .xlsx yoki .csv fayllar qabul qilinadi."
	msgFileNotExpected = "📎 Fayl faqat «📊 Ommaviy mavzular» bo‘limida qabul qilinadi."
	msgNoTopicColumn   = "❌ Faylda «Mavzu» ustuni yoki mavzular topilmadi. Jarayon bekor qilindi."
	msgHistoryPremium  = "❌ Bu bo‘lim faqat premium foydalanuvchilar uchun."
	msgHistoryEmpty    = "📭 Siz hali birorta konspekt yaratmagansiz."
	msgHistoryInvalid  = "❌ Noto‘g‘ri raqam. Qayta urinib ko‘ring."
	msgHistoryMissing  = "⚠️ Fayl topilmadi. U o‘chirilgan bo‘lishi mumkin."
	msgHistoryResent   = "♻️ Arxivdan qayta yuklab olindi."
	msgNotAdmin        = "⛔ Siz administrator emassiz."
	msgUnknownCommand  = "Noma’lum buyruq. Yordam uchun /help"
	msgHelp            = "Bot maktab o‘qituvchilari uchun konspekt, dars ishlanma va metodik maslahat tayyorlaydi.\n\n" +
		"📄 Yangi Konspekt: fan, sinf va mavzu bo‘yicha konspekt\n" +
		"📝 Dars ishlanma: 45 daqiqalik dars rejasi\n" +
		"💡 Metodik maslahat: sinfdagi muammo bo‘yicha tavsiyalar\n" +
		"📊 Ommaviy mavzular: .xlsx yoki .csv fayldagi mavzular bo‘yicha\n" +
		"📂 Mening konspektlarim: premium foydalanuvchilar arxivi\n\n" +
		"Premium uchun to‘lov chekini (rasm) shu yerga yuboring.\n/cancel: joriy amalni bekor qilish"
	msgAdminHelp = "🔐 Admin buyruqlari:\n\n" +
		"/payments: kutilayotgan to‘lovlar\n" +
		"/users: foydalanuvchilar soni\n" +
		"/block <id>: foydalanuvchini bloklash\n" +
		"/unblock <id>: blokdan chiqarish"
)

var readyCaptions = map[models.GenerationMode]string{
	models.GenerationSummaryDocument: "✅ Konspektingiz tayyor!",
	models.GenerationLessonPlan:      "✅ Dars ishlanmangiz tayyor!",
	models.GenerationBulkTopics:      "✅ Mavzular bo‘yicha konspektlar tayyor!",
}

func (e *Engine) paymentInstructions() string {
	return fmt.Sprintf("💳 Karta: %s\n💰 Narx: %s\nTo‘lovdan so‘ng chek rasmini shu yerga yuboring.", e.settings.CardNumber, e.settings.PremiumPrice)
}

func (e *Engine) quotaExhaustedMessage() string {
	return fmt.Sprintf("🚫 Bepul imkoniyatlar tugadi (%d ta).\nDavom etish uchun premium bo‘ling.\n\n%s", e.gate.FreeQuota(), e.paymentInstructions())
}

func (e *Engine) previewMessage(preview string) string {
	return fmt.Sprintf("📝 Konspekt preview (%d%%):\n\n%s\n\nTo‘liq versiya uchun premium bo‘ling.\n%s", e.settings.PreviewPercent, preview, e.paymentInstructions())
}

func (e *Engine) bulkLimitMessage(count int) string {
	return fmt.Sprintf("❗ Bepul foydalanuvchilar bir faylda ko‘pi bilan %d ta mavzu yuborishi mumkin, faylingizda %d ta.\nRo‘yxatni qisqartiring yoki premium bo‘ling.\n\n%s", e.settings.BulkTopicLimit, count, e.paymentInstructions())
}

func documentTitle(request models.GenerationRequest) string {
	switch request.Mode {
	case models.GenerationLessonPlan:
		return fmt.Sprintf("%s (%s-sinf): %s. Dars ishlanma", request.Subject, request.Grade, request.Topic)
	case models.GenerationBulkTopics:
		return fmt.Sprintf("%s (%s-sinf): mavzular to‘plami", request.Subject, request.Grade)
	}
	return fmt.Sprintf("%s (%s-sinf): %s", request.Subject, request.Grade, request.Topic)
}

func reply(userID string, content string, markup *models.Markup) models.Effect {
	return models.Effect{Recipient: userID, Content: content, Markup: markup}
}
