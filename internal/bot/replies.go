package bot

import (
	"fmt"
	"strings"
)

// Static reply texts. The menu numbering must stay aligned with the
// menuTokens table in intent.go; "9" is reserved for the human handoff.
const (
	replyMenu = "¡Hola! 👋 Bienvenido a Óptica Visión.\n\n" +
		"¿En qué te podemos ayudar?\n\n" +
		"1️⃣ Examen de la vista\n" +
		"2️⃣ Lentes y micas\n" +
		"3️⃣ Monturas\n" +
		"4️⃣ Promociones\n" +
		"9️⃣ Hablar con un asesor\n\n" +
		"Escribe el número de la opción o cuéntanos qué necesitas. " +
		"También puedes agendar tu cita escribiendo, por ejemplo: \"quiero una cita mañana a las 10am\"."

	replyHandoff = "¡Claro! En un momento te atiende uno de nuestros asesores. 🙋"

	replyAskTime = "¡Perfecto! Te agendamos para el %s. ¿A qué hora te gustaría venir? " +
		"Por ejemplo: \"a las 10am\" o \"4:30 pm\"."

	replyAskDate = "¡Perfecto! Te agendamos a las %s. ¿Qué día te gustaría venir? " +
		"Por ejemplo: \"mañana\", \"el viernes\" o \"15 de julio\"."

	replyAskBoth = "¡Con gusto te agendamos una cita! 📅 ¿Qué día y a qué hora te gustaría venir? " +
		"Por ejemplo: \"mañana a las 10am\" o \"el viernes a las 4pm\"."

	replyConfirmed = "¡Listo! ✅ Tu cita quedó agendada para el %s. Te esperamos en Óptica Visión."

	replyNoSlots = "Lo sentimos, ese horario no está disponible. 😔 " +
		"¿Podrías proponernos otro día u horario?"
)

var topicReplies = map[MenuTopic]string{
	TopicExam: "El examen de la vista es gratuito y dura aproximadamente 20 minutos. 👁️ " +
		"Puedes agendar tu cita escribiendo, por ejemplo: \"quiero una cita mañana a las 10am\".",
	TopicLenses: "Manejamos micas antirreflejantes, fotocromáticas y progresivas de todas las graduaciones. 🤓 " +
		"Si nos compartes tu graduación te cotizamos de inmediato.",
	TopicFrames: "Tenemos monturas de todas las marcas y estilos, desde económicas hasta de diseñador. 😎 " +
		"Pasa a la tienda para probártelas o pregunta por nuestro catálogo.",
	TopicPromos: "🎉 Este mes: 2x1 en monturas seleccionadas y 20% de descuento en micas progresivas. " +
		"Pregunta por promociones vigentes al agendar tu cita.",
}

// topicTags mirror topicReplies; appended to the lead on each choice.
var topicTags = map[MenuTopic]string{
	TopicExam:   "interes_examen",
	TopicLenses: "interes_lentes",
	TopicFrames: "interes_monturas",
	TopicPromos: "interes_promociones",
}

// formatAlternatives renders up to three open slots as a numbered list the
// user can answer with a restated time or a number.
func formatAlternatives(alternatives []string) string {
	var b strings.Builder
	b.WriteString("Ese horario ya está ocupado. 😔 Pero tenemos estos espacios disponibles ese día:\n\n")
	for i, alt := range alternatives {
		fmt.Fprintf(&b, "%d. %s\n", i+1, alt)
	}
	b.WriteString("\nResponde con el número de la opción o con otro horario que te acomode.")
	return b.String()
}
