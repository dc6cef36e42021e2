package media

// Detection prompt for a user-submitted image. Confidence is requested
// on the 0-100 scale. Any capture-metadata summary is appended to this
// prompt before sending.
const imageDetectionPrompt = `Analyze this image and determine whether it was generated or heavily manipulated by AI.

Look for: unnatural textures, inconsistent lighting or shadows, malformed details (hands, text, reflections), telltale rendering artifacts, and implausible scene composition. Absence of camera metadata can support, but never decides, the verdict.

Respond ONLY in strict JSON:
{
  "description": "one or two sentences describing the image",
  "is_ai_generated": true|false,
  "confidence": 0-100,
  "reasoning": "short explanation of the decision"
}`

// Detection prompt for a sampled video frame. Confidence is requested
// on the 0-1 scale and normalized after parsing.
const frameDetectionPrompt = `Determine if this image is AI-generated.
Respond ONLY in JSON with fields: ai_generated (true/false), confidence (0-1), reasoning (string).`
