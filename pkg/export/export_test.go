package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/igorvan/omniscan/pkg/scanning"
)

type sourceMock struct {
	entries []scanning.Entry
	err     error
}

func (m *sourceMock) ReadAll(context.Context) ([]scanning.Entry, error) {
	return m.entries, m.err
}

type downloaderMock struct {
	name        string
	contentType string
	data        []byte
	calls       int
	err         error
}

func (m *downloaderMock) Download(_ context.Context, name, contentType string, data []byte) error {
	m.calls++
	m.name, m.contentType, m.data = name, contentType, data
	return m.err
}

type alertMock struct {
	messages []string
}

func (m *alertMock) Alert(message string) {
	m.messages = append(m.messages, message)
}

type ExportSuite struct {
	suite.Suite
}

func TestExportSuite(t *testing.T) {
	suite.Run(t, &ExportSuite{})
}

func (s *ExportSuite) TestCSV() {
	out := CSV([]scanning.Entry{
		{ID: 1700000001000, Value: `AB"12`, Format: "CODE_128", Timestamp: "11/14/2023, 10:13:21 PM"},
		{ID: 1700000000000, Value: "plain, with comma", Format: "QR_CODE", Timestamp: "11/14/2023, 10:13:20 PM"},
	})
	s.Equal(strings.Join([]string{
		`ID,Value,Format,Timestamp`,
		`"1700000001000","AB""12","CODE_128","11/14/2023, 10:13:21 PM"`,
		`"1700000000000","plain, with comma","QR_CODE","11/14/2023, 10:13:20 PM"`,
	}, "\n"), string(out))
}

func (s *ExportSuite) TestCSVRowCount() {
	for _, n := range []int{1, 2, 25} {
		s.Run(fmt.Sprintf("%d entries", n), func() {
			entries := make([]scanning.Entry, n)
			for i := range entries {
				entries[i] = scanning.Entry{ID: int64(i), Value: fmt.Sprintf("value-%d", i)}
			}
			rows := strings.Split(string(CSV(entries)), "\n")
			s.Len(rows, n+1)
			s.Equal("ID,Value,Format,Timestamp", rows[0])
		})
	}
}

func (s *ExportSuite) TestExport() {
	at := time.UnixMilli(1700000000123)
	testCases := []struct {
		title        string
		source       *sourceMock
		dlErr        error
		expectedErr  error
		expectAlert  bool
		expectedRows int
	}{
		{
			title:       "Failure - empty collection",
			source:      &sourceMock{entries: []scanning.Entry{}},
			expectedErr: ErrEmptyCollection,
			expectAlert: true,
		},
		{
			title:       "Failure - storage error",
			source:      &sourceMock{err: fmt.Errorf("storage is down")},
			expectedErr: fmt.Errorf("storage is down"),
		},
		{
			title: "Failure - download error",
			source: &sourceMock{entries: []scanning.Entry{
				{ID: 1, Value: "a"},
			}},
			dlErr:       fmt.Errorf("disk full"),
			expectedErr: fmt.Errorf("disk full"),
		},
		{
			title: "Success",
			source: &sourceMock{entries: []scanning.Entry{
				{ID: 2, Value: "b"},
				{ID: 1, Value: "a"},
			}},
			expectedRows: 3,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.title, func() {
			alert := &alertMock{}
			exp, err := New(tc.source, alert, nil)
			s.Require().NoError(err)
			exp.now = func() time.Time { return at }
			dl := &downloaderMock{err: tc.dlErr}

			name, err := exp.Export(context.TODO(), dl)
			if tc.expectedErr != nil {
				s.Error(err)
				s.Empty(name)
				if errors.Is(tc.expectedErr, ErrEmptyCollection) {
					s.ErrorIs(err, ErrEmptyCollection)
					s.Zero(dl.calls)
				} else {
					s.Contains(err.Error(), tc.expectedErr.Error())
				}
			} else {
				s.NoError(err)
				s.Equal("scanned_barcodes_1700000000123.csv", name)
				s.Equal(name, dl.name)
				s.Equal(ContentType, dl.contentType)
				s.Len(strings.Split(string(dl.data), "\n"), tc.expectedRows)
			}
			if tc.expectAlert {
				s.Equal([]string{EmptyMessage}, alert.messages)
			} else {
				s.Empty(alert.messages)
			}
		})
	}
}

func (s *ExportSuite) TestNew() {
	res, err := New(nil, nil, nil)
	s.Nil(res)
	s.Error(err)
}

func (s *ExportSuite) TestDirDownloader() {
	dir := filepath.Join(s.T().TempDir(), "exports")
	dl := DirDownloader{Dir: dir}
	s.NoError(dl.Download(context.TODO(), "scanned_barcodes_1.csv", ContentType, []byte("ID")))
	b, err := os.ReadFile(filepath.Join(dir, "scanned_barcodes_1.csv"))
	s.NoError(err)
	s.Equal("ID", string(b))

	s.Error(dl.Download(context.TODO(), "../escape.csv", ContentType, nil))
}
