package secrets

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the app's secrets in the OS keychain.
const KeyringService = "job-map"

// ProxyKeyringAccount derives the keychain account name for a proxy URL,
// or "" when the URL carries no username (no credential to look up).
func ProxyKeyringAccount(proxyURL string) string {
	u, err := url.Parse(proxyURL)
	if err != nil || u.User == nil || u.User.Username() == "" {
		return ""
	}
	return fmt.Sprintf("job-map:proxy:%s@%s", u.User.Username(), u.Host)
}

func GetProxyPassword(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	return "", errors.New("proxy password not found in keychain")
}

func SetProxyPassword(keyringAccount string, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

func DeleteProxyPassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

// ApplyProxyPassword fills in the password for an authenticated proxy URL
// from the keychain. URLs without a username, or with the password already
// inline, pass through unchanged.
func ApplyProxyPassword(rawURL string) (string, error) {
	if rawURL == "" {
		return "", nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("proxy url: %w", err)
	}
	if u.User == nil || u.User.Username() == "" {
		return rawURL, nil
	}
	if _, has := u.User.Password(); has {
		return rawURL, nil
	}

	pw, err := GetProxyPassword(ProxyKeyringAccount(rawURL))
	if err != nil {
		return "", err
	}
	u.User = url.UserPassword(u.User.Username(), pw)
	return u.String(), nil
}
