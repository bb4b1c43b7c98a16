package storage

import "time"

func ProfileKey(userID string) string         { return "profile:" + userID }
func OnboardingKey(userID string) string      { return "onboarding:" + userID }
func EntitlementKey(userID string) string     { return "entitlement:" + userID }
func SnapshotKey(userID string) string        { return "snapshot_" + userID }
func NextTaskKey(userID string) string        { return "nextAdaptedTask_" + userID }
func MomentumMirrorKey(userID string) string  { return "momentumMirror_" + userID }
func DashboardTeaserKey(userID string) string { return "dashboardTeaser_" + userID }

func HistoryKey(userID string, at time.Time) string {
	return "history:" + userID + ":" + at.UTC().Format(time.RFC3339Nano)
}
