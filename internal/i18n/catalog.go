// Package i18n holds the user-facing message catalog (Italian and English)
// and negotiates the locale of each request.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. Each key is also the English text.
const (
	MsgEnhanceFailed  = "Could not enhance the image: %s"
	MsgExtractFailed  = "Could not extract the colors: %s"
	MsgTransferFailed = "Could not harmonize the colors: %s"
	MsgSuggestFailed  = "Could not suggest dodge and burn settings: %s"

	MsgImageGenerationFailed = "Image generation failed: The API did not return an image.%s"
	MsgNoResult              = "The API did not return a result.%s"
	MsgBlockReason           = " Block reason: %s."
	MsgFinishReason          = " Finish reason: %s."
	MsgModelText             = " Model response: \"%s\""
	MsgEmptyResponse         = " The model response was empty or did not contain an image. The prompt may be too restrictive or the model may have triggered an internal safety filter without giving details."

	MsgInvalidPalette    = "The API response did not contain a valid color array: %s"
	MsgInvalidSuggestion = "The API response did not contain a valid suggestion: %s"
	MsgUnparsableResult  = "Could not parse the processed image."
	MsgTransportFailed   = "The request to the model failed: %s"

	MsgUnsupportedType = "Invalid file type. Upload a JPEG, PNG or WEBP image. Note: .RAF files are not supported."
	MsgFileTooLarge    = "File too large. Upload an image smaller than 20MB."
	MsgEmptyFile       = "The file is empty."
	MsgContentMismatch = "The file content does not match its declared type."
	MsgTooManyPixels   = "Image too large: %dx%d pixels. Upload an image of at most %d megapixels."
	MsgUnreadableImage = "Could not read the image data."
	MsgInvalidValue    = "Invalid value for %s: %s"
	MsgPaletteSize     = "The number of colors must be between %d and %d."

	MsgNoImage          = "No image file selected."
	MsgNothingToApply   = "No processed image or selected colors for the transfer."
	MsgWrongStep        = "This action is not available at the current step."
	MsgBusy             = "An operation of this kind is already in progress."
	MsgStale            = "The result arrived after the session was reset and was discarded."
	MsgUnknownError     = "An unknown error occurred."
	MsgSessionNotFound  = "Session not found or expired."
	MsgTooManyPreviews  = "Too many open previews in this session."
	MsgUploadGetStarted = "Start by uploading a photo to begin the AI enhancement process."

	MsgStepUpload    = "Step 1: Upload"
	MsgStepRetouch   = "Step 2: Retouch"
	MsgStepHarmonize = "Step 3: Color"
	MsgStepDone      = "Done"
)

var italian = map[string]string{
	MsgEnhanceFailed:  "Impossibile migliorare l'immagine: %s",
	MsgExtractFailed:  "Impossibile estrarre i colori: %s",
	MsgTransferFailed: "Impossibile armonizzare i colori: %s",
	MsgSuggestFailed:  "Impossibile suggerire le impostazioni di scherma e brucia: %s",

	MsgImageGenerationFailed: "La generazione dell'immagine è fallita: L'API non ha restituito un'immagine.%s",
	MsgNoResult:              "L'API non ha restituito un risultato.%s",
	MsgBlockReason:           " Motivo del blocco: %s.",
	MsgFinishReason:          " Motivo interruzione: %s.",
	MsgModelText:             " Risposta del modello: \"%s\"",
	MsgEmptyResponse:         " La risposta del modello era vuota o non conteneva un'immagine. Il prompt potrebbe essere troppo restrittivo o il modello potrebbe aver attivato un filtro di sicurezza interno senza fornire dettagli.",

	MsgInvalidPalette:    "La risposta dell'API non conteneva un array di colori valido: %s",
	MsgInvalidSuggestion: "La risposta dell'API non conteneva un suggerimento valido: %s",
	MsgUnparsableResult:  "Impossibile analizzare l'immagine elaborata.",
	MsgTransportFailed:   "La richiesta al modello è fallita: %s",

	MsgUnsupportedType: "Tipo di file non valido. Carica un'immagine JPEG, PNG o WEBP. Nota: i file .RAF non sono supportati in questa demo.",
	MsgFileTooLarge:    "File troppo grande. Carica un'immagine più piccola di 20MB.",
	MsgEmptyFile:       "Il file è vuoto.",
	MsgContentMismatch: "Il contenuto del file non corrisponde al tipo dichiarato.",
	MsgTooManyPixels:   "Immagine troppo grande: %dx%d pixel. Carica un'immagine di al massimo %d megapixel.",
	MsgUnreadableImage: "Impossibile leggere i dati dell'immagine.",
	MsgInvalidValue:    "Valore non valido per %s: %s",
	MsgPaletteSize:     "Il numero di colori deve essere compreso tra %d e %d.",

	MsgNoImage:          "Nessun file immagine selezionato.",
	MsgNothingToApply:   "Nessuna immagine elaborata o colori selezionati per il trasferimento.",
	MsgWrongStep:        "Questa azione non è disponibile nel passo corrente.",
	MsgBusy:             "Un'operazione di questo tipo è già in corso.",
	MsgStale:            "Il risultato è arrivato dopo il ripristino della sessione ed è stato scartato.",
	MsgUnknownError:     "Si è verificato un errore sconosciuto.",
	MsgSessionNotFound:  "Sessione non trovata o scaduta.",
	MsgTooManyPreviews:  "Troppe anteprime aperte in questa sessione.",
	MsgUploadGetStarted: "Inizia caricando una foto per avviare il processo di miglioramento con l'AI.",

	MsgStepUpload:    "Passo 1: Carica",
	MsgStepRetouch:   "Passo 2: Ritocco",
	MsgStepHarmonize: "Passo 3: Colore",
	MsgStepDone:      "Fatto",
}

// Supported lists the catalog languages; the first is the default.
var Supported = []language.Tag{language.Italian, language.English}

var (
	cat     = newCatalog()
	matcher = language.NewMatcher(Supported)
)

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range italian {
		if err := b.SetString(language.Italian, key, msg); err != nil {
			panic("i18n: " + err.Error())
		}
		if err := b.SetString(language.English, key, key); err != nil {
			panic("i18n: " + err.Error())
		}
	}
	return b
}

// Printer returns a printer for tag backed by the catalog.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(cat))
}

// Sprintf formats the message key in tag's language.
func Sprintf(tag language.Tag, key string, args ...any) string {
	return Printer(tag).Sprintf(key, args...)
}

// Match picks the supported language best matching an Accept-Language
// header, or fallback when nothing matches with at least low confidence.
func Match(acceptLanguage string, fallback language.Tag) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return Supported[idx]
}

// Parse resolves a locale string such as "it" or "en-US" to a supported
// language. It reports false for unknown or unsupported locales.
func Parse(locale string) (language.Tag, bool) {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.Und, false
	}
	return Supported[idx], true
}
