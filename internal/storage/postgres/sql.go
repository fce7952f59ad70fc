package postgres

// The views expose the profiles of the most recent run so that reporting
// tools do not have to know about run IDs.

const createLatestRunViewSQL = `CREATE OR REPLACE VIEW latest_profile_run AS
SELECT run_id, generated_at, summary
FROM profile_runs
ORDER BY generated_at DESC
LIMIT 1;`

const createLatestHourlyViewSQL = `CREATE OR REPLACE VIEW latest_hourly_profiles AS
SELECT h.station_id, h.hour, h.mean_changes, h.mean_incoming, h.mean_outgoing
FROM hourly_profiles h
JOIN latest_profile_run r ON r.run_id = h.run_id;`

const createLatestWeekdayViewSQL = `CREATE OR REPLACE VIEW latest_weekday_profiles AS
SELECT w.station_id, w.weekday, w.mean_changes, w.mean_incoming, w.mean_outgoing
FROM weekday_profiles w
JOIN latest_profile_run r ON r.run_id = w.run_id;`
