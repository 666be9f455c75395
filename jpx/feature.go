// Package jpx implements JPX reader-requirements feature negotiation:
// a closed set of standard feature identifiers, their dependency graph,
// combination validation, and translating a feature set to and from an
// rreq box's FUAM/DCM bitmaps via internal/boxcodec.
package jpx

import "sort"

// Feature is a standard JPX feature identifier. Values >= 18 are Part-2
// features, a property of the numeric identifier itself rather than a
// separate flag.
type Feature int

const (
	FeatureNoExtensions             Feature = 1
	FeatureNeedsJPXReader           Feature = 11
	FeatureCompositing              Feature = 12
	FeatureMultipleCompositionLayers Feature = 13
	FeatureAnimation                Feature = 16
	FeatureMultiComponentTransform  Feature = 18
	FeatureNonLinearTransform       Feature = 19
	FeatureArbitraryWavelets        Feature = 20
	FeatureTrellisQuantization      Feature = 21
	FeatureExtendedROI              Feature = 22
	FeatureExtendedPrecision        Feature = 23
	FeatureDCOffset                 Feature = 24
	FeatureVisualMasking            Feature = 25
	FeaturePerceptualEncoding       Feature = 26
)

var featureNames = map[Feature]string{
	FeatureNoExtensions:              "noExtensions",
	FeatureNeedsJPXReader:            "needsJPXReader",
	FeatureCompositing:               "compositing",
	FeatureMultipleCompositionLayers: "multipleCompositionLayers",
	FeatureAnimation:                 "animation",
	FeatureMultiComponentTransform:   "multiComponentTransform",
	FeatureNonLinearTransform:        "nonLinearTransform",
	FeatureArbitraryWavelets:         "arbitraryWavelets",
	FeatureTrellisQuantization:       "trellisQuantization",
	FeatureExtendedROI:               "extendedROI",
	FeatureExtendedPrecision:         "extendedPrecision",
	FeatureDCOffset:                  "dcOffset",
	FeatureVisualMasking:             "visualMasking",
	FeaturePerceptualEncoding:        "perceptualEncoding",
}

func (f Feature) String() string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	return "unknown"
}

// isPart2 reports whether a feature's numeric identifier places it in
// Part-2 (ISO/IEC 15444-2) territory.
func (f Feature) isPart2() bool { return int(f) >= 18 }

// dependencies maps a feature to the co-features it requires. Features
// absent from this map depend on nothing.
var dependencies = map[Feature][]Feature{
	FeatureMultiComponentTransform: {FeatureNeedsJPXReader},
	FeatureNonLinearTransform:      {FeatureNeedsJPXReader},
	FeatureArbitraryWavelets:       {FeatureNeedsJPXReader},
	FeatureTrellisQuantization:     {FeatureNeedsJPXReader},
	FeatureExtendedROI:             {FeatureNeedsJPXReader},
	FeatureExtendedPrecision:       {FeatureNeedsJPXReader},
	FeatureDCOffset:                {FeatureNeedsJPXReader},
	FeatureVisualMasking:           {FeatureNeedsJPXReader},
	FeaturePerceptualEncoding:      {FeatureNeedsJPXReader},
	FeatureCompositing:             {FeatureMultipleCompositionLayers},
	FeatureAnimation:               {FeatureMultipleCompositionLayers},
}

// sortedAscending returns the distinct features in set in ascending
// numeric order, matching the order reader-requirements construction and
// combination validation both iterate in.
func sortedAscending(set []Feature) []Feature {
	seen := make(map[Feature]bool, len(set))
	out := make([]Feature, 0, len(set))
	for _, f := range set {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
