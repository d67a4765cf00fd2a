package config

import "time"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Timeline constraints
	MaxTimelinesPerUser int
	MaxDepth            int
	MaxTagsPerTimeline  int
	MaxTitleLength      int
	MinTitleLength      int

	// Entry constraints
	MaxMembershipsPerEntry int
	MaxContentLength       int

	// Chronology policy
	ApproximateFuzz   time.Duration // symmetric widening applied to approximate entries
	GapThreshold      time.Duration // quiet stretch long enough to report as a gap
	ClusterGap        time.Duration // max distance between entries in one temporal cluster
	MaxScanWindowSize int           // entries admitted to a single overlap scan

	// Performance limits
	MaxEntriesPerQuery   int
	MaxTimelinesPerQuery int

	// Validation settings
	AllowEmptyContent      bool
	AllowSelfRelationships bool
	AllowDuplicateEdges    bool

	// Feature flags
	EnableMembershipInference bool
	EnableAnalytics           bool
	EnableRealTimeSync        bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Timeline constraints
		MaxTimelinesPerUser: 500,
		MaxDepth:            10,
		MaxTagsPerTimeline:  20,
		MaxTitleLength:      200,
		MinTitleLength:      1,

		// Entry constraints
		MaxMembershipsPerEntry: 25,
		MaxContentLength:       50000,

		// Chronology policy. The fuzz margin is a fixed policy value,
		// never derived from the data itself.
		ApproximateFuzz:   7 * 24 * time.Hour,
		GapThreshold:      90 * 24 * time.Hour,
		ClusterGap:        14 * 24 * time.Hour,
		MaxScanWindowSize: 10000,

		// Performance limits
		MaxEntriesPerQuery:   1000,
		MaxTimelinesPerQuery: 500,

		// Validation settings
		AllowEmptyContent:      false,
		AllowSelfRelationships: false,
		AllowDuplicateEdges:    false,

		// Feature flags
		EnableMembershipInference: false,
		EnableAnalytics:           true,
		EnableRealTimeSync:        true,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// More restrictive limits for production
	config.MaxTimelinesPerUser = 200
	config.MaxContentLength = 20000
	config.MaxScanWindowSize = 5000

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// More permissive for development
	config.MaxTimelinesPerUser = 10000
	config.AllowEmptyContent = true
	config.AllowSelfRelationships = true
	config.AllowDuplicateEdges = true

	// Enable all features for testing
	config.EnableMembershipInference = true
	config.EnableAnalytics = true

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}
