package ai

import (
	"fmt"
	"konspektbot/m/v2/app/models"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "Siz O‘zbekiston umumta'lim maktablari uchun tajribali metodist-o‘qituvchisiz. " +
	"Foydalanuvchi bergan FAN, SINF va MAVZU asosida rasmiy darslik uslubida javob tayyorlang. " +
	"Har doim faqat foydalanuvchi bergan MAVZUGA mos javob bering. " +
	"Formulalarni LaTeX emas, oddiy matn ko‘rinishida yozing."

const conspectStructure = `📌 KONSPEKTNI QUYIDAGI TUZILMADA YOZING (maktab darsligi uslubida):

1. Mavzu nomi
2. Maqsad va vazifalar
3. Kutilayotgan o‘quv natijalari
4. Asosiy tushunchalar (agar kerak bo‘lsa ta’riflar bilan)
5. Yangi mavzuning bayoni (batafsil, to‘liq tushuntirish bilan)
6. Qoida yoki Teorema (agar mavjud bo‘lsa)
7. Formulalar (oddiy MATN KO‘RINISHIDA yozing, masalan: S = a * b yoki E = mc^2)
8. Misollar va yechimlar
9. Jadval yoki taqqoslash (agar kerak bo‘lsa)
10. Mustahkamlash savollari
11. Baholash mezonlari
12. Uyga vazifa

❗ MUHIM:
- Agar mavzuda formula yo‘q bo‘lsa, FORMULA bo‘limini yozmang.
- Agar qoida yoki teorema bo‘lmasa, YOZMANG.
- Matnni darslikdagi kabi neytral rasmiy uslubda yozing.
- Keraksiz she’riy yoki iqtiboslarga o‘tib ketmang.`

const lessonPlanStructure = `📌 DARS ISHLANMASINI QUYIDAGI TUZILMADA YOZING:

1. Mavzu
2. Darsning maqsadi (ta’limiy, tarbiyaviy, rivojlantiruvchi)
3. Dars turi va metodlari
4. Jihozlar
5. Darsning borishi (tashkiliy qism, o‘tilgan mavzuni takrorlash, yangi mavzu bayoni, mustahkamlash)
6. Har bir bosqich uchun vaqt taqsimoti (jami 45 daqiqa)
7. O‘quvchilarni baholash
8. Uyga vazifa`

const advicePrompt = `Fan: %s
Sinf: %s

O‘qituvchining muammosi yoki savoli:
%s

Ushbu vaziyat uchun amaliy metodik maslahat bering: muammoning sabablari, 3-5 ta aniq usul yoki mashg‘ulot, kutilayotgan natija. Javob qisqa va tushunarli bo‘lsin.`

const bulkPrompt = `Fan: %s
Sinf: %s
Mavzular:
%s

Har bir mavzu uchun alohida qisqa konspekt yozing. Har bir konspekt mavzu nomi bilan boshlansin va quyidagi bo‘limlarni o‘z ichiga olsin: Maqsad, Asosiy tushunchalar, Qisqacha bayon, Mustahkamlash savollari, Uyga vazifa.`

// BuildMessages renders the chat messages for a request.
func BuildMessages(request models.GenerationRequest) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt(request)},
	}
}

func userPrompt(request models.GenerationRequest) string {
	switch request.Mode {
	case models.GenerationLessonPlan:
		return fmt.Sprintf("Fan: %s\nSinf: %s\nMavzu: %s\n\n%s", request.Subject, request.Grade, request.Topic, lessonPlanStructure)
	case models.GenerationAdvisoryText:
		return fmt.Sprintf(advicePrompt, request.Subject, request.Grade, request.Topic)
	case models.GenerationBulkTopics:
		return fmt.Sprintf(bulkPrompt, request.Subject, request.Grade, request.Topic)
	}
	return fmt.Sprintf("Fan: %s\nSinf: %s\nMavzu: %s\n\n%s\n\nHar bir bo‘limni aniq va izchil yozing.", request.Subject, request.Grade, request.Topic, conspectStructure)
}
