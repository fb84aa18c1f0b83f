// Package api exposes a mounted volume over HTTP.
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/weberc2/blockfs/pkg/fs"
	. "github.com/weberc2/blockfs/pkg/types"
	pz "github.com/weberc2/httpeasy"
)

const (
	pathSuperblock = "/api/superblock"
	pathInode      = "/api/inodes/{ino}"
	pathEntries    = "/api/dirs/{ino}/entries"
	pathEntry      = "/api/dirs/{ino}/entries/{name}"
	pathData       = "/api/files/{ino}/data"
	pathDataOffset = "/api/files/{ino}/data/{offset}"
	pathCheck      = "/api/check"

	BadRequestErr ConstError = "bad request"
)

type logging struct {
	Message string `json:"message,omitempty"`
	Ino     Ino    `json:"ino,omitempty"`
	Name    string `json:"name,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Server struct {
	Volume *fs.Volume
}

func (s *Server) Routes() []pz.Route {
	return []pz.Route{{
		Method:  "GET",
		Path:    pathSuperblock,
		Handler: s.Superblock,
	}, {
		Method:  "GET",
		Path:    pathInode,
		Handler: s.Inode,
	}, {
		Method:  "GET",
		Path:    pathEntries,
		Handler: s.Entries,
	}, {
		Method:  "GET",
		Path:    pathEntry,
		Handler: s.Entry,
	}, {
		Method:  "POST",
		Path:    pathEntries,
		Handler: s.Create,
	}, {
		Method:  "GET",
		Path:    pathData,
		Handler: s.Read,
	}, {
		Method:  "PUT",
		Path:    pathDataOffset,
		Handler: s.Write,
	}, {
		Method:  "GET",
		Path:    pathCheck,
		Handler: s.Check,
	}}
}

func (s *Server) Superblock(r pz.Request) pz.Response {
	sb := s.Volume.Superblock()
	return pz.Ok(
		pz.JSON(struct {
			Superblock
			Available int `json:"available"`
		}{
			Superblock: sb,
			Available:  s.Volume.Available(),
		}),
		&logging{Message: "fetched superblock"},
	)
}

func (s *Server) Inode(r pz.Request) pz.Response {
	ino, err := parseIno(r)
	if err != nil {
		return handleError(err, &logging{Message: "parsing ino"})
	}
	inode, err := s.Volume.Stat(ino)
	if err != nil {
		return handleError(err, &logging{Message: "fetching inode", Ino: ino})
	}
	return pz.Ok(pz.JSON(inode), &logging{Message: "fetched inode", Ino: ino})
}

func (s *Server) Entries(r pz.Request) pz.Response {
	ino, err := parseIno(r)
	if err != nil {
		return handleError(err, &logging{Message: "parsing ino"})
	}
	entries, err := s.Volume.ReadDirAll(ino)
	if err != nil {
		return handleError(err, &logging{Message: "listing entries", Ino: ino})
	}
	return pz.Ok(pz.JSON(entries), &logging{Message: "listed entries", Ino: ino})
}

func (s *Server) Entry(r pz.Request) pz.Response {
	ino, err := parseIno(r)
	if err != nil {
		return handleError(err, &logging{Message: "parsing ino"})
	}
	name := r.Vars["name"]
	inode, err := s.Volume.Lookup(ino, name)
	if err != nil {
		return handleError(
			err,
			&logging{Message: "looking up entry", Ino: ino, Name: name},
		)
	}
	return pz.Ok(
		pz.JSON(inode),
		&logging{Message: "looked up entry", Ino: ino, Name: name},
	)
}

type createRequest struct {
	Name string `json:"name"`
	Mode Mode   `json:"mode"`
}

func (s *Server) Create(r pz.Request) pz.Response {
	ino, err := parseIno(r)
	if err != nil {
		return handleError(err, &logging{Message: "parsing ino"})
	}

	var req createRequest
	if err := r.JSON(&req); err != nil {
		return handleError(
			fmt.Errorf("parsing request body: %v: %w", err, BadRequestErr),
			&logging{Message: "parsing request body", Ino: ino},
		)
	}

	inode, err := s.Volume.Create(ino, req.Name, req.Mode)
	if err != nil {
		return handleError(
			err,
			&logging{Message: "creating entry", Ino: ino, Name: req.Name},
		)
	}
	return pz.Created(
		pz.JSON(inode),
		&logging{Message: "created entry", Ino: inode.Ino, Name: req.Name},
	)
}

func (s *Server) Read(r pz.Request) pz.Response {
	ino, err := parseIno(r)
	if err != nil {
		return handleError(err, &logging{Message: "parsing ino"})
	}

	query := r.URL.Query()
	offset, err := parseByte(query.Get("offset"), 0)
	if err != nil {
		return handleError(err, &logging{Message: "parsing offset", Ino: ino})
	}
	length, err := parseByte(query.Get("length"), BlockSize)
	if err != nil {
		return handleError(err, &logging{Message: "parsing length", Ino: ino})
	}

	data, err := s.Volume.Read(ino, offset, length)
	if err != nil {
		return handleError(err, &logging{Message: "reading file", Ino: ino})
	}
	return pz.Ok(pz.String(string(data)), &logging{Message: "read file", Ino: ino})
}

func (s *Server) Write(r pz.Request) pz.Response {
	ino, err := parseIno(r)
	if err != nil {
		return handleError(err, &logging{Message: "parsing ino"})
	}
	offset, err := parseByte(r.Vars["offset"], 0)
	if err != nil {
		return handleError(err, &logging{Message: "parsing offset", Ino: ino})
	}

	// one byte more than fits so oversized bodies still fail the bounds
	// check instead of being silently truncated
	data, err := io.ReadAll(io.LimitReader(r.Body, int64(BlockSize)+1))
	if err != nil {
		return handleError(err, &logging{Message: "reading request body", Ino: ino})
	}

	n, err := s.Volume.Write(ino, offset, data)
	if err != nil {
		return handleError(err, &logging{Message: "writing file", Ino: ino})
	}
	return pz.Ok(
		pz.JSON(struct {
			Written int `json:"written"`
		}{n}),
		&logging{Message: "wrote file", Ino: ino},
	)
}

func (s *Server) Check(r pz.Request) pz.Response {
	report, err := s.Volume.Check()
	if err != nil {
		return handleError(err, &logging{Message: "checking volume"})
	}
	return pz.Ok(pz.JSON(report), &logging{Message: "checked volume"})
}

func parseIno(r pz.Request) (Ino, error) {
	ino, err := strconv.ParseUint(r.Vars["ino"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing ino `%s`: %w", r.Vars["ino"], BadRequestErr)
	}
	return Ino(ino), nil
}

func parseByte(s string, def Byte) (Byte, error) {
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing integer `%s`: %w", s, BadRequestErr)
	}
	return Byte(b), nil
}

var statuses = []struct {
	err    error
	status int
}{
	{NotFoundErr, http.StatusNotFound},
	{ExistsErr, http.StatusConflict},
	{BadRequestErr, http.StatusBadRequest},
	{InvalidModeErr, http.StatusBadRequest},
	{InvalidNameErr, http.StatusBadRequest},
	{NameTooLongErr, http.StatusBadRequest},
	{OutOfBoundsErr, http.StatusBadRequest},
	{NotADirErr, http.StatusBadRequest},
	{IsADirErr, http.StatusBadRequest},
	{NoSpaceErr, http.StatusInsufficientStorage},
	{CapacityExceededErr, http.StatusInsufficientStorage},
	{DirectoryFullErr, http.StatusInsufficientStorage},
}

func httpError(err error) *pz.HTTPError {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return &pz.HTTPError{Status: s.status, Message: s.err.Error()}
		}
	}
	return &pz.HTTPError{
		Status:  http.StatusInternalServerError,
		Message: "internal server error",
	}
}

func handleError(err error, l *logging) pz.Response {
	httpErr := httpError(err)
	l.Error = err.Error()
	return pz.Response{
		Status: httpErr.Status,
		Data:   pz.JSON(httpErr),
	}.WithLogging(l)
}
