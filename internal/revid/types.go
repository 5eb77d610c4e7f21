// Package revid provides an HTTP client for the revid.ai rendering API and
// the translation of its status vocabulary into the canonical video states.
package revid

// RenderRequest contains the parameters for submitting a render job.
type RenderRequest struct {
	Script     string // Narration script to render
	Title      string // User-facing title (not sent to the provider)
	Voice      string // Voice identifier
	Style      string // Visual style token (see stylePresets)
	Aspect     string // Aspect ratio token: "16:9", "9:16", or "1:1"
	WebhookURL string // Callback URL invoked by the provider on status change
}

// aspectRatios maps our aspect tokens to the provider's ratio format.
var aspectRatios = map[string]string{
	"16:9": "16 / 9",
	"9:16": "9 / 16",
	"1:1":  "1 / 1",
}

// stylePresets maps our style tokens to the provider's generation presets.
var stylePresets = map[string]string{
	"leonardo":              "LEONARDO",
	"anime":                 "ANIME",
	"realism":               "REALISM",
	"illustration":          "ILLUSTRATION",
	"sketch_color":          "SKETCH_COLOR",
	"sketch_bw":             "SKETCH_BW",
	"pixar":                 "PIXAR",
	"ink":                   "INK",
	"render_3d":             "RENDER_3D",
	"lego":                  "LEGO",
	"scifi":                 "SCIFI",
	"retro_cartoon":         "RECRO_CARTOON",
	"pixel_art":             "PIXEL_ART",
	"creative":              "CREATIVE",
	"photography":           "PHOTOGRAPHY",
	"raytraced":             "RAYTRACED",
	"environment":           "ENVIRONMENT",
	"fantasy":               "FANTASY",
	"anime_sr":              "ANIME_SR",
	"movie":                 "MOVIE",
	"stylized_illustration": "STYLIZED_ILLUSTRATION",
	"manga":                 "MANGA",
}

// renderRequest is the request body for the provider's /render endpoint.
type renderRequest struct {
	Webhook        string         `json:"webhook"`
	CreationParams creationParams `json:"creationParams"`
}

// creationParams mirrors the provider's text-to-video creation parameters.
type creationParams struct {
	MediaType             string      `json:"mediaType"`
	CaptionPresetName     string      `json:"captionPresetName"`
	CaptionPositionName   string      `json:"captionPositionName"`
	SelectedVoice         string      `json:"selectedVoice"`
	HasEnhancedGeneration bool        `json:"hasEnhancedGeneration"`
	GenerationPreset      string      `json:"generationPreset"`
	GenerationUserPrompt  string      `json:"generationUserPrompt"`
	SelectedAudio         string      `json:"selectedAudio"`
	Origin                string      `json:"origin"`
	InputText             string      `json:"inputText"`
	FlowType              string      `json:"flowType"`
	Slug                  string      `json:"slug"`
	HasToGenerateVoice    bool        `json:"hasToGenerateVoice"`
	HasToTranscript       bool        `json:"hasToTranscript"`
	HasToSearchMedia      bool        `json:"hasToSearchMedia"`
	HasAvatar             bool        `json:"hasAvatar"`
	HasWebsiteRecorder    bool        `json:"hasWebsiteRecorder"`
	HasTextSmallAtBottom  bool        `json:"hasTextSmallAtBottom"`
	Ratio                 string      `json:"ratio"`
	SourceType            string      `json:"sourceType"`
	SelectedStoryStyle    storyStyle  `json:"selectedStoryStyle"`
	HasToGenerateVideos   bool        `json:"hasToGenerateVideos"`
	AudioURL              string      `json:"audioUrl"`
}

type storyStyle struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// renderResponse is the response from the provider's /render endpoint.
type renderResponse struct {
	PID     string `json:"pid"`
	ID      string `json:"id"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatusPayload is the provider's raw job state as returned by the status
// endpoint and delivered in webhook bodies. The URL may arrive in either
// the videoUrl or the url field.
type StatusPayload struct {
	PID      string   `json:"pid,omitempty"`
	Status   string   `json:"status"`
	Progress *float64 `json:"progress,omitempty"`
	VideoURL string   `json:"videoUrl,omitempty"`
	URL      string   `json:"url,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// ResultURL returns the finished video URL, preferring videoUrl over url.
func (p StatusPayload) ResultURL() string {
	if p.VideoURL != "" {
		return p.VideoURL
	}
	return p.URL
}

// Voice describes one entry in the provider's voice catalogue.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

// voicesResponse is the response from the provider's voice catalogue endpoint.
type voicesResponse struct {
	Voices []Voice `json:"voices"`
}
