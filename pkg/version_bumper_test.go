package calversion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPom = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <parent>
    <groupId>com.example</groupId>
    <artifactId>parent</artifactId>
    <version>3.0.0</version>
  </parent>
  <groupId>com.example</groupId>
  <artifactId>shop</artifactId>
  <version>7.3.2</version>
  <name>shop-service</name>
  <developers>
    <developer>
      <name>Jane</name>
    </developer>
  </developers>
  <dependencies>
    <dependency>
      <groupId>org.example</groupId>
      <artifactId>lib</artifactId>
      <version>1.2.3</version>
    </dependency>
  </dependencies>
</project>
`

// nameless pom: the project has no <name>, but nested blocks do.
const namelessPom = `<project xmlns="http://maven.apache.org/POM/4.0.0"
    xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
    xsi:schemaLocation="http://maven.apache.org/POM/4.0.0 http://maven.apache.org/xsd/maven-4.0.0.xsd">
  <modelVersion>4.0.0</modelVersion>
  <!-- <version>0.0.1</version> -->
  <groupId>com.example</groupId>
  <artifactId>shop</artifactId>
  <version>7.3.2</version>
  <distributionManagement>
    <site>
      <id>docs</id>
      <name>Acme Docs Site</name>
    </site>
    <snapshotRepository>
      <name>Acme Snapshots</name>
    </snapshotRepository>
  </distributionManagement>
  <mailingLists>
    <mailingList>
      <name>Shop Users</name>
    </mailingList>
  </mailingLists>
  <build>
    <pluginManagement>
      <plugins>
        <plugin>
          <artifactId>maven-site-plugin</artifactId>
          <version>3.12.1</version>
          <configuration><skip/></configuration>
        </plugin>
      </plugins>
    </pluginManagement>
  </build>
</project>
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFindMainVersionInFile(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		expected string
		line     int
	}{
		{
			name:     "pom skips parent and dependencies",
			file:     "pom.xml",
			content:  testPom,
			expected: "7.3.2",
			line:     11,
		},
		{
			name: "package.json top-level only",
			file: "package.json",
			content: `{
    "name": "shop",
    "dependencies": {
        "version": "9.9.9"
    },
    "version": "7.3.2-HF1"
}`,
			expected: "7.3.2-HF1",
			line:     6,
		},
		{
			name: "Cargo.toml package section",
			file: "Cargo.toml",
			content: `[dependencies]
version = "0.1.0"

[package]
name = "shop"
version = "7.3.2"`,
			expected: "7.3.2",
			line:     6,
		},
		{
			name:     "VERSION assignment",
			file:     "version.env",
			content:  "NAME=shop\nVERSION=7.3.2\n",
			expected: "7.3.2",
			line:     2,
		},
		{
			name:     "bare VERSION file",
			file:     "VERSION",
			content:  "7.3.2\n",
			expected: "7.3.2",
			line:     1,
		},
		{
			name:     "pom with multi-line root tag and commented version",
			file:     "pom.xml",
			content:  namelessPom,
			expected: "7.3.2",
			line:     8,
		},
		{
			name:     "single-line package.json",
			file:     "package.json",
			content:  `{"name":"shop","dependencies":{"version":"9.9.9"},"version":"7.3.2"}`,
			expected: "7.3.2",
			line:     1,
		},
		{
			name:     "package.json version text inside a string",
			file:     "package.json",
			content:  "{\n  \"description\": \"set \\\"version\\\": \\\"1.0.0\\\"\",\n  \"version\": \"7.3.2\"\n}\n",
			expected: "7.3.2",
			line:     3,
		},
		{
			name:     "malformed value is still located",
			file:     "pom.xml",
			content:  "<project>\n  <version>7.3.abc</version>\n</project>\n",
			expected: "7.3.abc",
			line:     2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, tt.file, tt.content)
			match, err := FindMainVersionInFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, match.Value)
			assert.Equal(t, tt.line, match.Line)
		})
	}
}

func TestFindMainVersionInFileMissing(t *testing.T) {
	path := writeTemp(t, "README.md", "# Shop\n\nNo version here.\n")
	_, err := FindMainVersionInFile(path)
	assert.True(t, errors.Is(err, ErrNoVersionField), "got %v", err)

	_, err = FindMainVersionInFile(filepath.Join(t.TempDir(), "absent.xml"))
	assert.Error(t, err)
}

func TestFindProjectNameInFile(t *testing.T) {
	tests := []struct {
		file, content, expected string
	}{
		{"pom.xml", testPom, "shop-service"},
		{"pom.xml", "<project>\n  <artifactId>shop</artifactId>\n  <version>1.1.1</version>\n</project>\n", "shop"},
		{"pom.xml", namelessPom, "shop"},
		{"package.json", `{"name":"shop-ui","version":"7.3.2"}`, "shop-ui"},
		{"package.json", "{\n  \"name\": \"shop-ui\",\n  \"version\": \"7.3.2\"\n}\n", "shop-ui"},
		{"Cargo.toml", "[package]\nname = \"shop-rs\"\nversion = \"7.3.2\"\n", "shop-rs"},
	}
	for _, tt := range tests {
		name, err := FindProjectNameInFile(writeTemp(t, tt.file, tt.content))
		require.NoError(t, err, tt.file)
		assert.Equal(t, tt.expected, name, tt.file)
	}

	_, err := FindProjectNameInFile(writeTemp(t, "VERSION", "7.3.2\n"))
	assert.Error(t, err)
}

func TestBumpVersionInFile(t *testing.T) {
	path := writeTemp(t, "pom.xml", testPom)
	ok, err := BumpVersionInFile(path, "7.3.3")
	require.NoError(t, err)
	require.True(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "  <version>7.3.3</version>\n  <name>shop-service</name>")
	// Parent and dependency versions are untouched.
	assert.Contains(t, content, "<version>3.0.0</version>")
	assert.Contains(t, content, "<version>1.2.3</version>")
	assert.Equal(t, len(testPom), len(content))
}

func TestBumpVersionInFileKeepsFormatting(t *testing.T) {
	content := "{\n  \"name\": \"shop\",\n  \"version\": \"7.3.2\",\n  \"private\": true\n}\n"
	path := writeTemp(t, "package.json", content)
	ok, err := BumpVersionInFile(path, "7.3.2-HF0")
	require.NoError(t, err)
	require.True(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"shop\",\n  \"version\": \"7.3.2-HF0\",\n  \"private\": true\n}\n", string(data))
}

func TestBumpVersionInFileSingleLineJSON(t *testing.T) {
	path := writeTemp(t, "package.json", `{"name":"shop","version":"7.3.2","private":true}`)
	ok, err := BumpVersionInFile(path, "7.3.3")
	require.NoError(t, err)
	require.True(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"shop","version":"7.3.3","private":true}`, string(data))
}

func TestBumpVersionInFileNamelessPom(t *testing.T) {
	path := writeTemp(t, "pom.xml", namelessPom)
	ok, err := BumpVersionInFile(path, "7.3.3")
	require.NoError(t, err)
	require.True(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "  <artifactId>shop</artifactId>\n  <version>7.3.3</version>")
	assert.Contains(t, content, "<!-- <version>0.0.1</version> -->")
	assert.Contains(t, content, "<version>3.12.1</version>")
}

func TestBumpVersionInFileNoVersion(t *testing.T) {
	content := "# Shop\n\nThis is a project without any version numbers.\n"
	path := writeTemp(t, "README.md", content)
	ok, err := BumpVersionInFile(path, "7.3.3")
	require.NoError(t, err)
	assert.False(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}
