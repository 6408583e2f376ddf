// Package solc compiles Solidity sources with a containerized compiler.
// The filtered sources are staged into a scratch directory, mounted into
// the compiler image, and the combined-json output is parsed into
// artifact definitions.
package solc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	dockernetwork "github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/avmjs/vapdeploy/internal/ir"
	"github.com/avmjs/vapdeploy/internal/logging"
)

// DefaultImage is the compiler image used when the stage options carry
// no "image" entry.
const DefaultImage = "ethereum/solc:stable"

const mountPath = "/sources"

// Load compiles every string source in the filtered map. Recognized
// options: "image" (compiler image), "optimize" (bool).
func Load(sources ir.SourceMap, options map[string]any, env *ir.Environment) (ir.Artifacts, error) {
	files := sourceFiles(sources)
	if len(files) == 0 {
		return ir.Artifacts{}, nil
	}

	ctx := context.Background()

	dir, err := stageSources(sources, files)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	raw, err := runCompiler(ctx, dir, files, options)
	if err != nil {
		return nil, err
	}

	return parseCombinedJSON(raw)
}

func sourceFiles(sources ir.SourceMap) []string {
	var files []string
	for p, content := range sources {
		if _, ok := content.(string); ok {
			files = append(files, p)
		}
	}
	sort.Strings(files)
	return files
}

// stageSources writes the sources into a scratch directory, preserving
// their relative layout so imports between files resolve.
func stageSources(sources ir.SourceMap, files []string) (string, error) {
	dir, err := os.MkdirTemp("", "vapdeploy-solc-*")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	for _, p := range files {
		dest := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			os.RemoveAll(dir)
			return "", fmt.Errorf("failed to stage %s: %w", p, err)
		}
		if err := os.WriteFile(dest, []byte(sources[p].(string)), 0644); err != nil {
			os.RemoveAll(dir)
			return "", fmt.Errorf("failed to stage %s: %w", p, err)
		}
	}
	return dir, nil
}

func runCompiler(ctx context.Context, dir string, files []string, options map[string]any) ([]byte, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	defer cli.Close()

	img := DefaultImage
	if v, ok := options["image"].(string); ok && v != "" {
		img = v
	}

	reader, err := cli.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to pull compiler image %s: %w", img, err)
	}
	io.Copy(io.Discard, reader)
	reader.Close()

	cmd := []string{"--combined-json", "abi,bin"}
	if v, ok := options["optimize"].(bool); ok && v {
		cmd = append(cmd, "--optimize")
	}
	for _, p := range files {
		cmd = append(cmd, mountPath+"/"+p)
	}

	resp, err := cli.ContainerCreate(ctx,
		&container.Config{
			Image:      img,
			Cmd:        cmd,
			WorkingDir: mountPath,
		},
		&container.HostConfig{
			Binds: []string{dir + ":" + mountPath + ":ro"},
		},
		&dockernetwork.NetworkingConfig{},
		&v1.Platform{},
		"",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create compiler container: %w", err)
	}
	defer cli.ContainerRemove(context.WithoutCancel(ctx), resp.ID, container.RemoveOptions{Force: true})

	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start compiler container: %w", err)
	}

	statusCh, errCh := cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	var exitCode int64
	select {
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("failed waiting for compiler: %w", err)
		}
	case status := <-statusCh:
		exitCode = status.StatusCode
	}

	logs, err := cli.ContainerLogs(ctx, resp.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read compiler output: %w", err)
	}
	defer logs.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil {
		return nil, fmt.Errorf("failed to demux compiler output: %w", err)
	}

	if exitCode != 0 {
		return nil, fmt.Errorf("compiler exited with status %d: %s", exitCode, strings.TrimSpace(stderr.String()))
	}

	logging.Debug("compiled sources", "image", img, "files", len(files))
	return stdout.Bytes(), nil
}

// combinedOutput mirrors solc's --combined-json document. Depending on
// the compiler version the abi field is either a JSON array or a
// JSON-encoded string.
type combinedOutput struct {
	Contracts map[string]struct {
		ABI json.RawMessage `json:"abi"`
		Bin string          `json:"bin"`
	} `json:"contracts"`
	Version string `json:"version"`
}

func parseCombinedJSON(raw []byte) (ir.Artifacts, error) {
	var parsed combinedOutput
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse compiler output: %w", err)
	}

	out := make(ir.Artifacts)
	for key, c := range parsed.Contracts {
		name := key
		if i := strings.LastIndexByte(key, ':'); i >= 0 {
			name = key[i+1:]
		}
		abi := c.ABI
		var quoted string
		if err := json.Unmarshal(abi, &quoted); err == nil {
			abi = json.RawMessage(quoted)
		}
		out[name] = &ir.Artifact{
			Name:      name,
			Bytecode:  ir.NormalizeHex(c.Bin),
			Interface: abi,
		}
	}
	return out, nil
}
