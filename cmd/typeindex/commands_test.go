package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeindex/internal/platform/config"
	"typeindex/internal/platform/logger"
	"typeindex/internal/typeindex"
	"typeindex/internal/typeindex/adapters/podtest"
	"typeindex/internal/typeindex/handler"
)

const classNote = "http://schema.org/NoteDigitalDocument"

type cliHarness struct {
	t   *testing.T
	pod *podtest.Pod
	me  string
}

func newHarness(t *testing.T) *cliHarness {
	pod := podtest.New(t)
	pod.Put(t, "/profile/card", `@prefix pim: <http://www.w3.org/ns/pim/space#> .
<#me> pim:preferencesFile <`+pod.URL("/settings/prefs.ttl")+`> .
`)
	pod.Put(t, "/settings/prefs.ttl", "")
	return &cliHarness{t: t, pod: pod, me: pod.URL("/profile/card#me")}
}

func (h *cliHarness) run(args ...string) (string, error) {
	var out bytes.Buffer
	a := newApp(&out)
	a.build = func(cfg config.Config) (*typeindex.Module, error) {
		return typeindex.New(typeindex.Deps{Config: cfg, Logger: logger.Discard()})
	}
	root := newRootCmd(a)
	root.SetArgs(append([]string{"--webid", h.me}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCLIRegistryLifecycle(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("init")
	require.NoError(t, err)
	assert.Contains(t, out, h.pod.URL("/profile/publicTypeIndex.ttl"))
	assert.Contains(t, out, h.pod.URL("/profile/privateTypeIndex.ttl"))

	out, err = h.run("register", "--class", classNote, "--location", h.pod.URL("/notes"), "--private")
	require.NoError(t, err)
	assert.Contains(t, out, h.pod.URL("/notes/"))
	assert.Contains(t, out, "unlisted")

	out, err = h.run("--json", "list", "--class", classNote)
	require.NoError(t, err)
	var listed handler.RegistrationsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed.Registrations, 1)
	assert.Equal(t, h.pod.URL("/notes/"), listed.Registrations[0].Location)

	out, err = h.run("unregister", "--class", classNote, "--private")
	require.NoError(t, err)
	assert.Contains(t, out, "no registrations for "+classNote)

	out, err = h.run("show")
	require.NoError(t, err)
	assert.Contains(t, out, "(2 triples)")
}

func TestCLIErrors(t *testing.T) {
	h := newHarness(t)

	t.Run("register before init", func(t *testing.T) {
		_, err := h.run("register", "--class", classNote, "--location", h.pod.URL("/notes/"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no Listed type index")
	})

	t.Run("missing webid", func(t *testing.T) {
		var out bytes.Buffer
		root := newRootCmd(newApp(&out))
		root.SetArgs([]string{"--webid", "", "show"})
		err := root.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--webid is required")
	})

	t.Run("missing class flag", func(t *testing.T) {
		_, err := h.run("list")
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "class"))
	})
}

func TestWriteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typeindex.yaml")
	var out bytes.Buffer
	root := newRootCmd(newApp(&out))
	root.SetArgs([]string{"write-config", path})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Pod, cfg.Pod)
}
