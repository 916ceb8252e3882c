package internaldefs

import "github.com/ohsuite/authflow"

// CounterDef binds a metric ID to its stable export name.
type CounterDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// CounterDefs fixes the export order and naming for every counter. Names are
// append-only: exporters rely on them staying stable across releases.
var CounterDefs = []CounterDef{
	{authflow.MetricLoginSuccess, "authflow_login_success_total", "Completed password-grant logins."},
	{authflow.MetricLoginFailure, "authflow_login_failure_total", "Rejected or failed password-grant logins."},
	{authflow.MetricExchangeSuccess, "authflow_exchange_success_total", "Completed authorization-code exchanges."},
	{authflow.MetricExchangeFailure, "authflow_exchange_failure_total", "Failed authorization-code exchanges."},
	{authflow.MetricExchangeDuplicate, "authflow_exchange_duplicate_total", "Exchange invocations absorbed by the exactly-once marker."},
	{authflow.MetricRefreshSuccess, "authflow_refresh_success_total", "Completed token renewals."},
	{authflow.MetricRefreshFailure, "authflow_refresh_failure_total", "Terminal token renewal failures."},
	{authflow.MetricRefreshCoalesced, "authflow_refresh_coalesced_total", "Refresh callers attached to an in-flight renewal."},
	{authflow.MetricLogout, "authflow_logout_total", "Logout invocations."},
	{authflow.MetricSessionExpired, "authflow_session_expired_total", "Sessions torn down by a failed renewal."},
	{authflow.MetricStorageDegraded, "authflow_storage_degraded_total", "Downgrades to the in-memory token store."},
}
