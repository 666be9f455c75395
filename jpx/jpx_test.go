package jpx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildReaderRequirementsMaskAssignment(t *testing.T) {
	r, err := BuildReaderRequirements([]Feature{FeatureNoExtensions, FeatureCompositing, FeatureAnimation})
	require.NoError(t, err)
	require.Equal(t, uint8(1), r.MaskLength)
	require.Equal(t, []byte{0b1110_0000}, r.FUAM) // bits 7,6,5 for identifiers 1,12,16
	require.Len(t, r.StandardFeatures, 3)
}

func TestBuildReaderRequirementsDCMOnlyCoversPart2(t *testing.T) {
	r, err := BuildReaderRequirements([]Feature{FeatureNoExtensions, FeatureMultiComponentTransform})
	require.NoError(t, err)
	// noExtensions=1 sorts first (bit 7), multiComponentTransform=18 second (bit 6).
	require.Equal(t, []byte{0b1100_0000}, r.FUAM)
	require.Equal(t, []byte{0b0100_0000}, r.DCM) // only the Part-2 feature's bit
}

func TestValidateDecoderPart1OnlyIsIncompatible(t *testing.T) {
	r, err := BuildReaderRequirements([]Feature{FeatureMultiComponentTransform})
	require.NoError(t, err)

	compat, missing := ValidateDecoder(nil, r)
	require.Equal(t, Incompatible, compat)
	require.Equal(t, []Feature{FeatureMultiComponentTransform}, missing)
}

func TestValidateDecoderPart2SupportedIsCompatible(t *testing.T) {
	r, err := BuildReaderRequirements([]Feature{FeatureMultiComponentTransform})
	require.NoError(t, err)

	compat, missing := ValidateDecoder([]Feature{FeatureMultiComponentTransform}, r)
	require.Equal(t, Compatible, compat)
	require.Empty(t, missing)
}

func TestValidateDecoderPartialCompatibility(t *testing.T) {
	r, err := BuildReaderRequirements([]Feature{FeatureNoExtensions, FeatureMultiComponentTransform})
	require.NoError(t, err)

	// Supports the Part-2 (display) bit but not the full-understand bit for noExtensions.
	compat, missing := ValidateDecoder([]Feature{FeatureMultiComponentTransform}, r)
	require.Equal(t, PartiallyCompatible, compat)
	require.Equal(t, []Feature{FeatureNoExtensions}, missing)
}

func TestValidateCombinationNoExtensionsWithAnother(t *testing.T) {
	issues := ValidateCombination([]Feature{FeatureNoExtensions, FeatureCompositing})
	found := false
	for _, iss := range issues {
		if iss.Feature == FeatureNoExtensions && iss.Severity == SeverityError {
			found = true
		}
	}
	require.True(t, found, "expected an error issue on noExtensions")
}

func TestValidateCombinationMissingNeedsJPXReaderReportsBoth(t *testing.T) {
	issues := ValidateCombination([]Feature{FeatureMultiComponentTransform})
	require.Len(t, issues, 2)

	var sawWarning, sawError bool
	for _, iss := range issues {
		require.Equal(t, FeatureMultiComponentTransform, iss.Feature)
		switch iss.Severity {
		case SeverityWarning:
			sawWarning = true
		case SeverityError:
			sawError = true
		}
	}
	require.True(t, sawWarning)
	require.True(t, sawError)
}

func TestValidateCombinationVisualMaskingWithoutPerceptual(t *testing.T) {
	issues := ValidateCombination([]Feature{FeatureNeedsJPXReader, FeatureVisualMasking})
	found := false
	for _, iss := range issues {
		if iss.Feature == FeatureVisualMasking && iss.Severity == SeverityWarning {
			found = true
		}
	}
	require.True(t, found)
}

func TestValidateCombinationSatisfiedDependenciesAreClean(t *testing.T) {
	issues := ValidateCombination([]Feature{
		FeatureNeedsJPXReader,
		FeatureMultiComponentTransform,
		FeatureVisualMasking,
		FeaturePerceptualEncoding,
	})
	require.Empty(t, issues)
}
