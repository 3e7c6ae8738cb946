// Package voices holds the static voice catalog. The catalog is fixed at
// process start; requests for voices outside it are rejected rather than
// silently mapped to a fallback.
package voices

import "github.com/book-expert/pdf-narrator/internal/core"

var catalog = []core.VoiceDescriptor{
	{ID: "en-US-AriaNeural", DisplayName: "Aria", Locale: "en-US"},
	{ID: "en-US-GuyNeural", DisplayName: "Guy", Locale: "en-US"},
	{ID: "en-US-JennyNeural", DisplayName: "Jenny", Locale: "en-US"},
	{ID: "en-GB-SoniaNeural", DisplayName: "Sonia", Locale: "en-GB"},
	{ID: "en-GB-RyanNeural", DisplayName: "Ryan", Locale: "en-GB"},
	{ID: "en-AU-NatashaNeural", DisplayName: "Natasha", Locale: "en-AU"},
	{ID: "de-DE-KatjaNeural", DisplayName: "Katja", Locale: "de-DE"},
	{ID: "fr-FR-DeniseNeural", DisplayName: "Denise", Locale: "fr-FR"},
	{ID: "es-ES-ElviraNeural", DisplayName: "Elvira", Locale: "es-ES"},
}

// Catalog returns the full voice catalog. The returned slice is a copy, so
// callers cannot mutate the catalog.
func Catalog() []core.VoiceDescriptor {
	descriptors := make([]core.VoiceDescriptor, len(catalog))
	copy(descriptors, catalog)

	return descriptors
}

// Lookup returns the descriptor for a voice identifier, reporting whether the
// voice is in the catalog.
func Lookup(id string) (core.VoiceDescriptor, bool) {
	for _, descriptor := range catalog {
		if descriptor.ID == id {
			return descriptor, true
		}
	}

	return core.VoiceDescriptor{}, false
}
