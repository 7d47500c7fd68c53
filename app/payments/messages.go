package payments

import (
	"fmt"
	"konspektbot/m/v2/app/models"
)

const (
	MessageProofReceived   = "✅ To‘lov cheki qabul qilindi. Tez orada administrator tomonidan ko‘rib chiqiladi."
	MessageBlocked         = "⛔ Kirish cheklangan. Administrator bilan bog‘laning."
	MessagePremiumGranted  = "🎉 Sizning premiumingiz faollashtirildi!\nEndi to‘liq konspektlarni yuklab olishingiz mumkin ✅"
	MessageProofRejected   = "❌ To‘lov cheki rad etildi. Savollar bo‘lsa, administrator bilan bog‘laning."
	MessageNotAdmin        = "⛔ Siz administrator emassiz."
	MessageAlreadyDecided  = "❌ To‘lov allaqachon ko‘rib chiqilgan."
	MessagePaymentNotFound = "❌ To‘lov topilmadi."
	MessageUserNotFound    = "❌ Foydalanuvchi topilmadi."
	MessageUserBlocked     = "⛔ Sizning profilingiz bloklangan."
	MessageUserUnblocked   = "✅ Profilingiz blokdan chiqarildi. /start bosing."
)

func ContactURL(userID string, username string) string {
	if username != "" {
		return "https://t.me/" + username
	}
	return "tg://user?id=" + userID
}

func displayUser(payment models.MongoPayment) string {
	if payment.Username != "" {
		return "@" + payment.Username
	}
	return "ID " + payment.UserID
}

// ProofCard renders a pending payment with decision buttons for one admin.
func ProofCard(adminID string, payment models.MongoPayment) models.Effect {
	return models.Effect{
		Recipient: adminID,
		Content: fmt.Sprintf(
			"💳 Yangi to‘lov cheki\n\n👤 Foydalanuvchi: %s\n🆔 ID: %s\n📎 Payment ID: %d\n🕒 %s",
			displayUser(payment), payment.UserID, payment.ID, payment.SubmittedAt.Format("2006-01-02 15:04"),
		),
		Attachment: &models.Attachment{Kind: models.AttachmentPhoto, Handle: payment.ProofReference},
		Markup: &models.Markup{Inline: [][]models.InlineButton{
			{
				{Text: "✅ Tasdiqlash", Data: fmt.Sprintf("approve_%d", payment.ID)},
				{Text: "❌ Rad etish", Data: fmt.Sprintf("reject_%d", payment.ID)},
			},
			{
				{Text: "⛔ Bloklash", Data: "block_" + payment.UserID},
				{Text: "📩 Bog‘lanish", URL: ContactURL(payment.UserID, payment.Username)},
			},
		}},
	}
}

func decisionConfirmation(result Result, payment *models.MongoPayment) string {
	switch result {
	case Approved:
		return fmt.Sprintf("✅ Tasdiqlandi!\n👤 %s\n🆔 User ID: %s\n🎖 Premium faollashtirildi.", displayUser(*payment), payment.UserID)
	case Rejected:
		return fmt.Sprintf("❌ Rad etildi.\n👤 %s\n📎 Payment ID: %d", displayUser(*payment), payment.ID)
	case AlreadyDecided:
		return MessageAlreadyDecided
	case DenyUnauthorized:
		return MessageNotAdmin
	}
	return MessagePaymentNotFound
}
