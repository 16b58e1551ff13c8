package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/telnet2/go-practice/go-sandsh"
	"github.com/telnet2/go-practice/go-sandsh/api"
	"github.com/telnet2/go-practice/go-sandsh/client"
	"github.com/telnet2/go-practice/go-sandsh/internal/sysinfo"
)

var _ = Describe("Shell API", func() {
	var (
		ts *httptest.Server
		fs afero.Fs
	)

	BeforeEach(func() {
		fs = afero.NewMemMapFs()
		Expect(sandsh.PrepareDirs(fs, "/tmp", "/home/user")).To(Succeed())

		exec := sandsh.New(
			sandsh.WithFs(fs),
			sandsh.WithProbe(&sysinfo.Static{CPU: 50}),
			sandsh.WithHome("/home/user"),
		)
		srv := api.New(api.DefaultConfig(), exec, zerolog.Nop())
		ts = httptest.NewServer(srv.Handler())
	})

	AfterEach(func() {
		ts.Close()
	})

	Describe("GET /api/v1/commands", func() {
		It("should describe every command with help", func() {
			resp, err := http.Get(ts.URL + "/api/v1/commands")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body api.CommandsResponse
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())

			names := make([]string, 0, len(body.Commands))
			for _, c := range body.Commands {
				Expect(c.Usage).NotTo(BeEmpty(), c.Name)
				names = append(names, c.Name)
			}
			Expect(names).To(ContainElements("ls", "cp", "mv", "echo", "ps", "help"))
			Expect(names).NotTo(ContainElement("--help"))
		})
	})

	Describe("POST /api/v1/exec", func() {
		var c *client.Client

		BeforeEach(func() {
			c = client.NewClient(client.ClientOptions{BaseURL: ts.URL})
		})

		AfterEach(func() {
			c.Close()
		})

		It("should run a stateless command line", func() {
			result, err := c.Exec("cd ..", "/home/user")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ExitCode).To(Equal(0))
			Expect(result.Cwd).To(Equal("/home"))
		})

		It("should report the clear marker as a flag", func() {
			result, err := c.Exec("clear", "/tmp")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Clear).To(BeTrue())
			Expect(result.Stdout).To(Equal(sandsh.ClearMarker))
		})

		It("should carry exit codes for failures", func() {
			result, err := c.Exec("frobnicate", "/tmp")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ExitCode).To(Equal(127))
			Expect(result.Stderr).To(Equal("Command not found: frobnicate\n"))
		})
	})

	Describe("Sessions over the REPL socket", func() {
		var session *client.Session

		BeforeEach(func() {
			var err error
			session, err = client.NewSession(client.SessionOptions{BaseURL: ts.URL})
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			if session != nil {
				session.Close(true)
			}
		})

		It("should start in the scratch directory", func() {
			Expect(session.Cwd()).To(Equal("/tmp"))
			Expect(session.Pwd()).To(Equal("/tmp"))
		})

		It("should keep the working directory between commands", func() {
			Expect(session.Mkdir("project")).To(Succeed())
			Expect(session.Cd("project")).To(Equal("/tmp/project"))

			Expect(session.WriteFile("notes.txt", "first")).To(Succeed())
			Expect(session.AppendFile("notes.txt", "second")).To(Succeed())
			Expect(session.ReadFile("notes.txt")).To(Equal("first\nsecond\n"))

			data, err := afero.ReadFile(fs, "/tmp/project/notes.txt")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("first\nsecond\n"))
		})

		It("should copy, move and list files", func() {
			Expect(session.Touch("a.txt")).To(Succeed())
			Expect(session.Copy("a.txt", "b.txt", false)).To(Succeed())
			Expect(session.Move("b.txt", "c.txt")).To(Succeed())

			names, err := session.Ls("", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(ContainElements("a.txt", "c.txt"))
			Expect(names).NotTo(ContainElement("b.txt"))
		})

		It("should surface command failures with their exit code", func() {
			_, err := session.Run("rmdir missing")
			Expect(err).To(HaveOccurred())

			var failed *client.CommandFailedError
			Expect(errors.As(err, &failed)).To(BeTrue())
			Expect(failed.ExitCode).To(Equal(1))
			Expect(failed.Stderr).NotTo(BeEmpty())
			Expect(session.Cwd()).To(Equal("/tmp"))
		})

		It("should keep sessions isolated", func() {
			other, err := client.NewSession(client.SessionOptions{BaseURL: ts.URL})
			Expect(err).NotTo(HaveOccurred())
			defer other.Close(true)

			Expect(session.Cd("/home/user")).To(Equal("/home/user"))
			Expect(other.Pwd()).To(Equal("/tmp"))
		})

		It("should reject commands for a removed session", func() {
			c := client.NewClient(client.ClientOptions{BaseURL: ts.URL})
			defer c.Close()

			Expect(c.RemoveSession(session.ID())).To(Succeed())

			_, err := c.ExecuteCommand(session.ID(), "pwd")
			var rpcErr *client.JSONRPCError
			Expect(errors.As(err, &rpcErr)).To(BeTrue())
			Expect(rpcErr.Code).To(Equal(client.InvalidParams))

			sessions, err := c.ListSessions()
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(BeEmpty())

			session.Close(false)
			session = nil
		})
	})
})
