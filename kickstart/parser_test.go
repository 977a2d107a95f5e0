package kickstart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		description     string
		input           string
		expect          []*ZFCPData
		expectUnhandled []string
		expectErr       bool
	}{
		{
			description: "single command",
			input:       "zfcp --devnum=0.0.fc00 --wwpn=0x5105074308c212e9 --fcplun=0x401040a000000000\n",
			expect: []*ZFCPData{
				{DevNum: "0.0.fc00", WWPN: "0x5105074308c212e9", FCPLun: "0x401040a000000000", Line: 1},
			},
		},
		{
			description: "space separated, quoted and comments",
			input: `# storage
lang en_US.UTF-8

zfcp --devnum 0.0.fc00 --wwpn "0x5105074308c212e9" --fcplun=0x401040a0 # first
%pre
zfcp --devnum=ignored
%end
	zfcp --devnum=fc01 --wwpn=1 --fcplun=2`,
			expect: []*ZFCPData{
				{DevNum: "0.0.fc00", WWPN: "0x5105074308c212e9", FCPLun: "0x401040a0", Line: 4},
				{DevNum: "fc01", WWPN: "1", FCPLun: "2", Line: 8},
			},
			expectUnhandled: []string{"lang"},
		},
		{description: "missing lun", input: "zfcp --devnum=0.0.fc00 --wwpn=1\n", expectErr: true},
		{description: "unknown option", input: "zfcp --devnum=1 --wwpn=1 --fcplun=1 --scsiid=2\n", expectErr: true},
		{description: "duplicate option", input: "zfcp --devnum=1 --devnum=2 --wwpn=1 --fcplun=1\n", expectErr: true},
		{description: "positional argument", input: "zfcp 0.0.fc00\n", expectErr: true},
		{description: "unterminated section", input: "%packages\n@core\n", expectErr: true},
		{description: "empty value", input: "zfcp --devnum= --wwpn=1 --fcplun=1\n", expectErr: true},
	}

	for _, testCase := range testCases {
		data, err := Parse([]byte(testCase.input))
		if testCase.expectErr {
			assert.ErrorIs(t, err, ErrSyntax, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, data.ZFCP, testCase.description)
		assert.Equal(t, testCase.expectUnhandled, data.Unhandled, testCase.description)
	}
}

func TestData_String(t *testing.T) {
	data := &Data{ZFCP: []*ZFCPData{
		{DevNum: "0.0.fc00", WWPN: "0x5105074308c212e9", FCPLun: "0x401040a000000000"},
		{DevNum: "0.0.fc01", WWPN: "0x5105074308c212e9", FCPLun: "0x401040a100000000"},
	}}
	text := data.String()
	assert.Equal(t, "zfcp --devnum=0.0.fc00 --wwpn=0x5105074308c212e9 --fcplun=0x401040a000000000\n"+
		"zfcp --devnum=0.0.fc01 --wwpn=0x5105074308c212e9 --fcplun=0x401040a100000000\n", text)

	parsed, err := Parse([]byte(text))
	require.NoError(t, err)
	require.Len(t, parsed.ZFCP, 2)
	assert.Equal(t, data.ZFCP[1].FCPLun, parsed.ZFCP[1].FCPLun)
}

func TestParse_MissingOptionOrder(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		expect      string
	}{
		{description: "no options", input: "zfcp\n", expect: "--devnum"},
		{description: "lun only", input: "zfcp --fcplun 0x401040a0\n", expect: "--devnum"},
		{description: "devnum only", input: "zfcp --devnum=fc00\n", expect: "--wwpn"},
		{description: "lun missing", input: "zfcp --devnum=fc00 --wwpn=1\n", expect: "--fcplun"},
	}
	for _, testCase := range testCases {
		for i := 0; i < 20; i++ {
			_, err := Parse([]byte(testCase.input))
			require.ErrorIs(t, err, ErrSyntax, testCase.description)
			assert.Contains(t, err.Error(), "zfcp requires "+testCase.expect, testCase.description)
		}
	}
}
