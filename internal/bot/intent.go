package bot

import (
	"strings"

	"github.com/jmoralesv/optica-crm/internal/leads"
)

// IntentKind is the outcome of classifying one inbound text.
type IntentKind int

const (
	IntentNone IntentKind = iota
	IntentGreeting
	IntentMenu
	IntentHandoff
	IntentAppointment
)

func (k IntentKind) String() string {
	switch k {
	case IntentGreeting:
		return "greeting_or_menu"
	case IntentMenu:
		return "numbered_menu_choice"
	case IntentHandoff:
		return "human_handoff"
	case IntentAppointment:
		return "appointment_intent"
	default:
		return "no_match"
	}
}

// MenuTopic identifies a numbered menu choice.
type MenuTopic string

const (
	TopicExam   MenuTopic = "exam"
	TopicLenses MenuTopic = "lenses"
	TopicFrames MenuTopic = "frames"
	TopicPromos MenuTopic = "promos"
)

// Classification is the single intent assigned to an inbound text.
type Classification struct {
	Kind    IntentKind
	Topic   MenuTopic
	Matched string
}

// The keyword tables below are the full rule set the classifier consults, in
// priority order. Handoff must win over everything so an agent request is
// never swallowed mid-dialogue, and appointment intent must win over the
// plain "examen" menu token so the booking dialogue takes precedence over the
// generic informational reply.
type substringRule struct {
	kind     IntentKind
	keywords []string
}

var intentRules = []substringRule{
	{
		kind:     IntentHandoff,
		keywords: []string{"humano", "asesor", "persona", "ayuda", "hablar con alguien"},
	},
	{
		kind: IntentAppointment,
		keywords: []string{
			"agendar", "agenda", "cita", "reservar", "reserva", "examen",
			"consulta", "revision", "revisión", "quiero una cita",
			"necesito una cita", "cuando puedo ir", "horario disponible",
		},
	},
}

// handoffLiteral is the menu digit reserved for "talk to a human".
const handoffLiteral = "9"

var menuTokens = []struct {
	topic  MenuTopic
	tokens []string
}{
	{TopicExam, []string{"1", "uno", "examen"}},
	{TopicLenses, []string{"2", "dos", "lentes"}},
	{TopicFrames, []string{"3", "tres", "monturas"}},
	{TopicPromos, []string{"4", "cuatro", "promociones"}},
}

var greetingKeywords = []string{
	"hola", "buenos dias", "buenas tardes", "buenas noches",
	"hi", "start", "inicio", "menu",
}

// Normalize prepares inbound text for rule matching. Accents are kept; the
// keyword tables carry both accented and unaccented Spanish variants.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Classify assigns exactly one intent to an inbound text. Pure function of
// (text, lead status); leads with status "new" fall back to the greeting menu
// even without a keyword match.
func Classify(text, leadStatus string) Classification {
	normalized := Normalize(text)

	if normalized == handoffLiteral {
		return Classification{Kind: IntentHandoff, Matched: handoffLiteral}
	}
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(normalized, kw) {
				return Classification{Kind: rule.kind, Matched: kw}
			}
		}
	}

	for _, entry := range menuTokens {
		for _, token := range entry.tokens {
			if normalized == token {
				return Classification{Kind: IntentMenu, Topic: entry.topic, Matched: token}
			}
		}
	}

	for _, kw := range greetingKeywords {
		if strings.Contains(normalized, kw) {
			return Classification{Kind: IntentGreeting, Matched: kw}
		}
	}
	if leadStatus == leads.StatusNew {
		// First contact always gets the menu.
		return Classification{Kind: IntentGreeting}
	}

	return Classification{Kind: IntentNone}
}
