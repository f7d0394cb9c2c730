// Package domain models population exposure to agricultural warning levels.
//
// # Data Source
//
// Warning levels originate from the ASAP (Anomaly hot Spots of Agricultural
// Production) early-warning system run by the EC Joint Research Centre,
// published at https://agricultural-production-hotspots.ec.europa.eu/. The
// hotspots time-series archive carries one row per admin-2 region per
// reporting date with a categorical warning label for cropland (and a
// parallel column for rangeland). The upstream acquisition job downloads and
// unpacks the archive on a schedule and leaves the extracted CSV on local
// disk; this service never fetches remote data itself.
//
// Population figures are WorldPop UN-adjusted estimates aggregated per admin-2
// polygon by a zonal-statistics job. They are static: one population per
// region, no time axis.
//
// # Warning Label Conventions
//
// ASAP encodes warnings as numeric codes which the acquisition job rewrites to
// labels before this service reads them:
//
//	0, 10, 20      →  "No warning"
//	2-4, 12-14     →  "Watch"
//	5              →  "Advisory"
//	6-8            →  "Alert"
//	9              →  "Emergency"
//	98, 99         →  "Off season"
//
// Regions whose polygon contains no cropland or rangeland mask carry the
// label "No crop or rangeland".
//
// # Severity Hierarchy
//
// Labels order into a seven-level scale. Higher values mean more severe
// conditions; negative values are sentinels that flag missing coverage rather
// than hazard intensity:
//
//	No crop or rangeland  -2  sentinel
//	Off season            -1  sentinel
//	No warning             0
//	Watch                  1
//	Advisory               2
//	Alert                  3
//	Emergency              4
//
// Sentinel populations count toward monthly totals but never toward the
// cumulative "severity at or above k" sums. Label matching is
// case-insensitive and tolerates the padding and repeated-whitespace drift
// seen in ASAP exports: "  ALERT " and "alert" resolve to the same level.
// An unknown label aborts the run instead of being skipped, since a silently
// dropped label would understate exposure for every month it appears in.
//
// # Monthly Bucketing and Join
//
// Reporting dates collapse to calendar months ([Period]). A region observed on
// several dates within one month contributes its population once per
// observation. Observations join against the population table by region id;
// rows without a population match are dropped and counted ([JoinStats]), and a
// duplicate region id in the population table aborts the run. See [Join],
// [Aggregate], and [ComputeExposure] for the three stages.
package domain
