package gateway

import (
	"encoding/base64"
	"time"
)

const timestampLayout = "20060102150405"

// The provider validates timestamps in East Africa Time.
var eat = time.FixedZone("EAT", 3*60*60)

// Timestamp renders t the way the provider signs requests.
func Timestamp(t time.Time) string {
	return t.In(eat).Format(timestampLayout)
}

// Password derives the per-request password from the short code, passkey and timestamp.
func Password(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}
