package calversion

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// NetrcFile is the credential file name written into the home directory.
const NetrcFile = ".netrc"

// Credentials describe the host-scoped login git uses when pushing.
type Credentials struct {
	Host       string // e.g. github.com
	Repository string // owner/repo
	Token      string
}

// Owner returns the repository owner, the part before the first slash.
func (c Credentials) Owner() string {
	owner, _, _ := strings.Cut(c.Repository, "/")
	return owner
}

func (c Credentials) validate() error {
	switch {
	case c.Token == "":
		return errors.New("credentials: token is empty")
	case c.Host == "":
		return errors.New("credentials: host is empty")
	case c.Owner() == "":
		return errors.Errorf("credentials: cannot derive owner from repository %q", c.Repository)
	}
	return nil
}

// Netrc renders the three-line credential entry.
func (c Credentials) Netrc() string {
	return fmt.Sprintf("machine %s\nlogin %s\npassword %s\n", c.Host, c.Owner(), c.Token)
}

// WriteNetrc writes the credential file into home, replacing any existing
// one, and returns its path. The file is readable by the owner only.
func WriteNetrc(home string, c Credentials) (string, error) {
	if home == "" {
		return "", errors.New("credentials: home directory is not set")
	}
	if err := c.validate(); err != nil {
		return "", err
	}
	path := filepath.Join(home, NetrcFile)
	if err := os.WriteFile(path, []byte(c.Netrc()), 0600); err != nil {
		return "", errors.Wrapf(err, "writing %s", path)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0600); err != nil {
		return "", errors.Wrapf(err, "chmod %s", path)
	}
	return path, nil
}
