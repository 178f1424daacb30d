// Command attune-export is the data-portability CLI: it exports, imports,
// and deletes user profiles against a running attune-server.
//
// Usage:
//
//	attune-export -user alice export > alice.json
//	attune-export -user alice -file alice.json import
//	attune-export -user alice -data ./data -file alice.json drop
//	attune-export -user alice delete
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/attuneai/attune/internal/notify"
	"github.com/attuneai/attune/pkg/types"
)

func main() {
	server := flag.String("server", "http://127.0.0.1:7070", "Base URL of the attune server")
	user := flag.String("user", "", "User ID to operate on")
	file := flag.String("file", "", "Profile JSON file (import/drop input, export output; default stdout/stdin)")
	dataPath := flag.String("data", "./data", "Data directory for the drop command")
	token := flag.String("token", os.Getenv("ATTUNE_API_TOKEN"), "API bearer token")
	flag.Parse()

	_ = godotenv.Load()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if *user == "" {
		log.Fatal("the -user flag is required")
	}

	cli := &client{
		base:  strings.TrimRight(*server, "/"),
		token: *token,
		http:  &http.Client{Timeout: 30 * time.Second},
	}

	var err error
	switch cmd := flag.Arg(0); cmd {
	case "export":
		err = runExport(cli, *user, *file)
	case "import":
		err = runImport(cli, *user, *file)
	case "drop":
		err = runDrop(*dataPath, *file)
	case "delete":
		err = cli.do(http.MethodDelete, "/api/users/"+*user, nil, nil)
	default:
		log.Fatalf("unknown command %q (want export, import, drop, or delete)", cmd)
	}
	if err != nil {
		log.Fatal(err)
	}
}

type client struct {
	base  string
	token string
	http  *http.Client
}

func (c *client) do(method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func runExport(cli *client, user, file string) error {
	var export types.ProfileExport
	if err := cli.do(http.MethodGet, "/api/users/"+user+"/export", nil, &export); err != nil {
		return err
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if file == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(file, data, 0o600); err != nil {
		return err
	}
	log.Printf("exported profile for %s to %s (%d memories)", user, file, len(export.MemorySummaries))
	return nil
}

func runImport(cli *client, user, file string) error {
	export, err := readExport(file)
	if err != nil {
		return err
	}

	data, err := json.Marshal(export)
	if err != nil {
		return err
	}
	if err := cli.do(http.MethodPost, "/api/users/"+user+"/import", strings.NewReader(string(data)), nil); err != nil {
		return err
	}
	log.Printf("imported profile for %s (%d memories)", user, len(export.MemorySummaries))
	return nil
}

// runDrop places the profile file in the server's import directory instead
// of going over HTTP, for when the API is not reachable from this host.
func runDrop(dataPath, file string) error {
	export, err := readExport(file)
	if err != nil {
		return err
	}
	return notify.NewExportWriter(dataPath).Drop(export)
}

func readExport(file string) (types.ProfileExport, error) {
	var export types.ProfileExport

	in := io.Reader(os.Stdin)
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return export, err
		}
		defer f.Close()
		in = f
	}

	if err := json.NewDecoder(in).Decode(&export); err != nil {
		return export, fmt.Errorf("invalid profile file: %w", err)
	}
	return export, nil
}
