// Package locale holds the per-deployment strings the assistant needs.
//
// A Strings value is resolved once at startup and handed to the components that
// need it; nothing here is mutable after construction.
package locale

import "strings"

// Language is a supported deployment language.
type Language string

const (
	French  Language = "fr"
	Spanish Language = "es"
)

// Strings are the localized texts used by the relay and the chat consumer.
type Strings struct {
	Language Language

	// SystemPrompt sets the assistant persona, reply language and topic scope.
	SystemPrompt string

	Greeting      string
	Thinking      string
	Typing        string
	Online        string
	ErrorLabel    string
	ResponseError string
	SendFailed    string
	RetryHint     string
	Prompt        string
}

var catalog = map[Language]Strings{
	French: {
		Language: French,
		SystemPrompt: `Tu es l'Assistant STRUGAL, un assistant IA utile pour le système de gestion d'inventaire STRUGAL.

Tu aides les utilisateurs avec :
- Questions sur la gestion d'inventaire
- Compréhension des produits en aluminium et en verre
- Navigation et fonctionnalités du système
- Support général pour le système d'inventaire STRUGAL

Réponds TOUJOURS en français. Garde tes réponses concises, utiles et professionnelles. Maintiens toujours un ton amical.
Si on te demande des données d'inventaire spécifiques, rappelle aux utilisateurs de vérifier le tableau de bord pour les informations en temps réel.`,
		Greeting:      "Bonjour ! Je suis votre Assistant STRUGAL ✨ Comment puis-je vous aider avec la gestion de votre inventaire aujourd'hui ?",
		Thinking:      "Réflexion...",
		Typing:        "Écrit...",
		Online:        "En ligne",
		ErrorLabel:    "Erreur",
		ResponseError: "Échec de la réponse",
		SendFailed:    "Échec de l'envoi du message",
		RetryHint:     "Échec de l'envoi du message. Veuillez réessayer.",
		Prompt:        "Posez-moi une question...",
	},
	Spanish: {
		Language: Spanish,
		SystemPrompt: `Eres el Asistente STRUGAL, un asistente de IA útil para el sistema de gestión de inventario STRUGAL.

Ayudas a los usuarios con:
- Preguntas sobre la gestión de inventario
- Comprensión de los productos de aluminio y vidrio
- Navegación y funciones del sistema
- Soporte general para el sistema de inventario STRUGAL

Responde SIEMPRE en español. Mantén tus respuestas concisas, útiles y profesionales. Mantén siempre un tono amable.
Si te piden datos de inventario específicos, recuerda a los usuarios que consulten el panel para obtener información en tiempo real.`,
		Greeting:      "¡Hola! Soy tu Asistente STRUGAL ✨ ¿Cómo puedo ayudarte hoy con la gestión de tu inventario?",
		Thinking:      "Pensando...",
		Typing:        "Escribiendo...",
		Online:        "En línea",
		ErrorLabel:    "Error",
		ResponseError: "Error en la respuesta",
		SendFailed:    "Error al enviar el mensaje",
		RetryHint:     "Error al enviar el mensaje. Por favor, inténtalo de nuevo.",
		Prompt:        "Hazme una pregunta...",
	},
}

// Parse maps a language tag such as "fr", "FR" or "es-ES" to a Language.
// Unknown tags resolve to French.
func Parse(tag string) Language {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	if _, ok := catalog[Language(tag)]; ok {
		return Language(tag)
	}
	return French
}

// For returns the strings for lang, falling back to French.
func For(lang Language) Strings {
	if s, ok := catalog[lang]; ok {
		return s
	}
	return catalog[French]
}
