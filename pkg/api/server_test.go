package api

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/weberc2/blockfs/pkg/device"
	"github.com/weberc2/blockfs/pkg/fs"
	. "github.com/weberc2/blockfs/pkg/types"
	pz "github.com/weberc2/httpeasy"
	pztest "github.com/weberc2/httpeasy/testsupport"
)

func TestServer(t *testing.T) {
	type testCase struct {
		name         string
		handler      func(*Server) pz.Handler
		request      pz.Request
		wantedStatus int
		wantedBody   string
	}

	for _, tc := range []testCase{{
		name:    "lookup",
		handler: func(s *Server) pz.Handler { return s.Entry },
		request: pz.Request{
			Vars: map[string]string{"ino": "1", "name": "notes.txt"},
		},
		wantedStatus: 200,
		wantedBody:   `"ino":9`,
	}, {
		name:    "lookup missing",
		handler: func(s *Server) pz.Handler { return s.Entry },
		request: pz.Request{
			Vars: map[string]string{"ino": "1", "name": "missing"},
		},
		wantedStatus: 404,
	}, {
		name:         "bad ino",
		handler:      func(s *Server) pz.Handler { return s.Inode },
		request:      pz.Request{Vars: map[string]string{"ino": "root"}},
		wantedStatus: 400,
	}, {
		name:         "list entries",
		handler:      func(s *Server) pz.Handler { return s.Entries },
		request:      pz.Request{Vars: map[string]string{"ino": "1"}},
		wantedStatus: 200,
		wantedBody:   `[{"name":"notes.txt","ino":9}]`,
	}, {
		name:    "create",
		handler: func(s *Server) pz.Handler { return s.Create },
		request: pz.Request{
			Vars: map[string]string{"ino": "1"},
			Body: strings.NewReader(`{"name":"docs","mode":16877}`),
		},
		wantedStatus: 201,
		wantedBody:   `"ino":10`,
	}, {
		name:    "create duplicate",
		handler: func(s *Server) pz.Handler { return s.Create },
		request: pz.Request{
			Vars: map[string]string{"ino": "1"},
			Body: strings.NewReader(`{"name":"notes.txt","mode":33188}`),
		},
		wantedStatus: 409,
	}, {
		name:    "create invalid mode",
		handler: func(s *Server) pz.Handler { return s.Create },
		request: pz.Request{
			Vars: map[string]string{"ino": "1"},
			Body: strings.NewReader(`{"name":"dev","mode":8612}`),
		},
		wantedStatus: 400,
	}, {
		name:    "create bad json",
		handler: func(s *Server) pz.Handler { return s.Create },
		request: pz.Request{
			Vars: map[string]string{"ino": "1"},
			Body: strings.NewReader(`{`),
		},
		wantedStatus: 400,
	}, {
		name:    "read",
		handler: func(s *Server) pz.Handler { return s.Read },
		request: pz.Request{
			Vars: map[string]string{"ino": "9"},
			URL:  &url.URL{RawQuery: "offset=7&length=5"},
		},
		wantedStatus: 200,
		wantedBody:   "world",
	}, {
		name:    "read dir",
		handler: func(s *Server) pz.Handler { return s.Read },
		request: pz.Request{
			Vars: map[string]string{"ino": "1"},
			URL:  &url.URL{},
		},
		wantedStatus: 400,
	}, {
		name:    "write",
		handler: func(s *Server) pz.Handler { return s.Write },
		request: pz.Request{
			Vars: map[string]string{"ino": "9", "offset": "7"},
			Body: strings.NewReader("there"),
		},
		wantedStatus: 200,
		wantedBody:   `{"written":5}`,
	}, {
		name:    "write out of bounds",
		handler: func(s *Server) pz.Handler { return s.Write },
		request: pz.Request{
			Vars: map[string]string{"ino": "9", "offset": "4095"},
			Body: strings.NewReader("ab"),
		},
		wantedStatus: 400,
	}, {
		name:         "check",
		handler:      func(s *Server) pz.Handler { return s.Check },
		request:      pz.Request{},
		wantedStatus: 200,
		wantedBody:   `"problems":null`,
	}} {
		t.Run(tc.name, func(t *testing.T) {
			s := newServer(t)
			rsp := tc.handler(s)(tc.request)

			if rsp.Status != tc.wantedStatus {
				data, _ := json.Marshal(rsp.Logging)
				t.Fatalf(
					"Response.Status: wanted `%d`; found `%d` (logging: %s)",
					tc.wantedStatus,
					rsp.Status,
					data,
				)
			}

			data, err := pztest.ReadAll(rsp.Data)
			if err != nil {
				t.Fatalf("ReadAll(): unexpected err: %v", err)
			}
			if !strings.Contains(string(data), tc.wantedBody) {
				t.Fatalf("Response.Data: wanted `%s`; found `%s`", tc.wantedBody, data)
			}
		})
	}
}

func TestServer_Routes(t *testing.T) {
	s := Server{}
	seen := map[string]struct{}{}
	for _, route := range s.Routes() {
		key := route.Method + " " + route.Path
		if _, found := seen[key]; found {
			t.Fatalf("Routes(): duplicate route `%s`", key)
		}
		if route.Handler == nil {
			t.Fatalf("Routes(): route `%s` has no handler", key)
		}
		seen[key] = struct{}{}
	}
}

func newServer(t *testing.T) *Server {
	dev := device.NewMemory(Block(MaxObjects))
	if err := fs.Format(dev, fs.FormatParams{}); err != nil {
		t.Fatalf("Format(): unexpected err: %v", err)
	}
	vol, err := fs.Mount(dev, fs.MountParams{})
	if err != nil {
		t.Fatalf("Mount(): unexpected err: %v", err)
	}
	notes, err := vol.CreateFile(InoRoot, "notes.txt", fs.DefaultFilePerm)
	if err != nil {
		t.Fatalf("CreateFile(): unexpected err: %v", err)
	}
	if _, err := vol.Write(notes.Ino, 0, []byte("hello, world")); err != nil {
		t.Fatalf("Write(): unexpected err: %v", err)
	}
	return &Server{Volume: vol}
}
