package contentutil

// suspiciousKeywords 可疑关键词目录
// 进程级只读表，进程启动时初始化一次，所有并发分析共享
var suspiciousKeywords = []string{
	"login", "signin", "signup", "user", "username", "userid",
	"password", "passwd", "pwd", "passcode", "pin", "mpin", "credential", "creds",
	"otp", "totp", "mfa", "2fa", "auth", "authenticate", "token", "sessionid",
	"bank", "banking", "netbanking", "ifsc", "upi", "imps", "neft", "rtgs", "swift",
	"account", "accno", "acno", "iban", "sortcode", "routing", "balance",
	"transaction", "txn", "transfer", "payment", "payout", "deposit", "withdrawal",
	"atm", "card", "debit", "credit", "cvc", "cvv", "expdate", "expiry", "mastercard",
	"visa", "rupay", "amex", "wallet", "paytm", "gpay", "googlepay", "phonepe",
	"bhim", "paypal", "stripe", "cashapp", "venmo", "zelle",
	"verify", "verification", "update", "reset", "recover", "unlock", "lock",
	"security", "secure", "confidential", "secret", "confidentiality",
	"key", "privatekey", "publickey", "apikey", "jwt", "license", "serial",
	"free", "prize", "winner", "lottery", "offer", "bonus", "promotion", "deal",
	"click", "link", "download", "install", "setup", "activate", "activation",
	"urgent", "alert", "important", "attention", "warning", "suspend", "disabled",
	"blocked", "breach", "compromise", "hacked", "unauthorized", "illegal", "fraud",
	"exploit", "shell", "payload", "reverse", "meterpreter", "bind", "inject",
	"execute", "cmd", "command", "powershell", "bash", "sh", "exe", "dll", "so", "bin",
	"registry", "hkey", "startup", "boot", "autorun", "persistence", "rootkit",
	"keylogger", "logger", "capture", "screenshot", "spy", "steal", "exfil",
	"encrypt", "decrypt", "ransom", "bitcoin", "btc", "monero", "xmr", "crypto",
	"email", "mail", "outlook", "gmail", "yahoo", "hotmail", "imap", "smtp", "pop3",
	"office365", "o365", "exchange", "webmail", "phish", "spoof", "spoofed",
	"ssn", "dob", "pan", "aadhar", "aadhaar", "passport", "drivinglicense",
	"insurance", "medical", "policy", "tax", "irs", "income", "salary", "payroll",
}
