package server

import (
	"regexp"
	"strings"

	semver "github.com/Masterminds/semver/v3"
)

// clientVersionHeader is sent by game clients that embed the telemetry SDK.
const clientVersionHeader = "X-Client-Version"

// versionGate rejects telemetry from clients older than the configured
// constraint. Clients that do not send a version header pass the gate, so
// enabling it never blackholes data from older SDK builds.
type versionGate struct {
	constraint *semver.Constraints
}

func newVersionGate(constraint string) (*versionGate, error) {
	if strings.TrimSpace(constraint) == "" {
		return &versionGate{}, nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, err
	}
	return &versionGate{constraint: c}, nil
}

func (g *versionGate) enabled() bool {
	return g != nil && g.constraint != nil
}

// allow checks the reported client version against the constraint.
// Unparseable versions fail closed when the gate is enabled.
func (g *versionGate) allow(version string) bool {
	if !g.enabled() {
		return true
	}
	version = strings.TrimSpace(version)
	if version == "" {
		return true
	}

	v, err := semver.NewVersion(normalizeClientVersion(version))
	if err != nil {
		return false
	}
	return g.constraint.Check(v)
}

var versionPattern = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?)`)

// normalizeClientVersion extracts a semver-compatible version from values
// like "v1.4.0", "1.4", or "UnitySDK 1.4.0".
func normalizeClientVersion(raw string) string {
	match := versionPattern.FindStringSubmatch(raw)
	if len(match) >= 2 {
		return match[1]
	}
	return strings.TrimSpace(raw)
}
