package analyzer

// Advisory messages per tier. These are part of the wire contract with the
// frontend and must not be reworded casually.
const (
	adviceClear = "Conditions clear. Drive safely."
	adviceLight = "Light Fog Detected. Reduce speed. Turn on headlights (low beam). Be cautious."
	adviceHeavy = "HEAVY FOG! Reduce speed significantly. Use fog lights. Increase following distance. Consider stopping if visibility is minimal."

	messageClear = "Clear"
	messageLight = "Light Fog Detected"
	messageHeavy = "Heavy Fog Detected"
)

// Classify maps the two feature scores onto a visibility tier. Decision
// order matters: the heavy tier is checked first against the derived heavy
// thresholds, then the light tier against the base thresholds. A frame that
// clears both is Clear. Identical inputs always produce identical output.
func Classify(scores FeatureScores, thresholds ThresholdConfig) Classification {
	switch {
	case scores.Sharpness < thresholds.HeavySharpness() || scores.Contrast < thresholds.HeavyContrast():
		return Classification{
			Intensity:   IntensityHeavy,
			FogDetected: true,
			Advice:      adviceHeavy,
			Message:     messageHeavy,
		}
	case scores.Sharpness < thresholds.Sharpness || scores.Contrast < thresholds.Contrast:
		return Classification{
			Intensity:   IntensityLight,
			FogDetected: true,
			Advice:      adviceLight,
			Message:     messageLight,
		}
	default:
		return Classification{
			Intensity:   IntensityClear,
			FogDetected: false,
			Advice:      adviceClear,
			Message:     messageClear,
		}
	}
}
