package analyzer

// dangerousPermissions 敏感权限目录
// 进程级只读表，进程启动时初始化一次，所有并发分析共享
var dangerousPermissions = map[string]struct{}{
	"android.permission.READ_SMS":                 {},
	"android.permission.RECEIVE_SMS":              {},
	"android.permission.SEND_SMS":                 {},
	"android.permission.READ_CONTACTS":            {},
	"android.permission.WRITE_CONTACTS":           {},
	"android.permission.READ_PHONE_STATE":         {},
	"android.permission.CALL_PHONE":               {},
	"android.permission.PROCESS_OUTGOING_CALLS":   {},
	"android.permission.RECORD_AUDIO":             {},
	"android.permission.READ_EXTERNAL_STORAGE":    {},
	"android.permission.WRITE_EXTERNAL_STORAGE":   {},
	"android.permission.SYSTEM_ALERT_WINDOW":      {},
	"android.permission.REQUEST_INSTALL_PACKAGES": {},
}
