package image

import (
	"fmt"
	"strings"
)

// BuildLayeredPrompt assembles the final generation prompt from a scene
// description and the cached face analysis. The layering (subject,
// appearance, scene, style, constraint) keeps the rendered character
// consistent page to page as long as analyzedFeatures is passed verbatim.
func BuildLayeredPrompt(scenePrompt, childName, analyzedFeatures string) string {
	personalized := strings.ReplaceAll(scenePrompt, "{name}", childName)

	return fmt.Sprintf(`Subject: The child named %s.
Appearance: %s.

Scene Action: %s.

Environment: Masterpiece, 8k resolution, photorealistic, intricate details, sharp focus, ray tracing, soft volumetric lighting.

Style: an award-winning cinematic photograph, hyper-realistic, highly detailed skin texture, 8k resolution, deep depth of field, sharp background, soft natural lighting, shot on 35mm film.

Constraint: identical character face, consistent clothing, perfect face integration.`, childName, analyzedFeatures, personalized)
}
