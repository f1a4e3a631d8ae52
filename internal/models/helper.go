package models

import "strings"

// EmailKey turns an email into the key used for user and access records.
func EmailKey(email string) string {
	return strings.ReplaceAll(strings.TrimSpace(email), ".", ",")
}

// EmailFromKey reverses EmailKey.
func EmailFromKey(key string) string {
	return strings.ReplaceAll(key, ",", ".")
}
