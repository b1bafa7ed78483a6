package atcmd

import "testing"

func TestDecodeSimple(t *testing.T) {
	cases := []struct {
		line string
		want Code
	}{
		{"ATA", CALL_ANSWERED},
		{"AT+CHUP", CALL_TERMINATED},
		{"AT+CIND=?", INDICATOR_RETRIEVE},
		{"AT+CIND?", INDICATOR_STATUS},
		{"AT+CHLD=?", CALL_HOLD_SUPPORT},
		{"AT+BIND=?", RETRIEVE_GENERIC_STATUS_INDICATORS},
		{"AT+BIND?", GENERIC_STATUS_INDICATOR_STATE},
		{"AT+BCC", TRIGGER_CODEC_CONNECTION_SETUP},
		{"AT+FOO", UNKNOWN},
		{"", UNKNOWN},
	}
	for _, c := range cases {
		got := Decode(c.line)
		if got.Code != c.want {
			t.Errorf("Decode(%q).Code = %s, want %s", c.line, got.Code, c.want)
		}
	}
}

func TestDecodeBRSF(t *testing.T) {
	d := Decode("AT+BRSF=191")
	if d.Code != SUPPORTED_FEATURES || d.Features != 191 {
		t.Fatalf("got %+v", d)
	}
}

func TestDecodeBRSFMalformed(t *testing.T) {
	d := Decode("AT+BRSF=nope")
	if d.Code != UNKNOWN {
		t.Fatalf("got %s, want UNKNOWN", d.Code)
	}
}

func TestDecodeBAC(t *testing.T) {
	d := Decode("AT+BAC=2,1")
	if d.Code != AVAILABLE_CODECS {
		t.Fatalf("got %s", d.Code)
	}
	if len(d.Codecs) != 2 || d.Codecs[0] != 2 || d.Codecs[1] != 1 {
		t.Fatalf("got codecs %v", d.Codecs)
	}
}

func TestDecodeCMER(t *testing.T) {
	d := Decode("AT+CMER=3,0,0,1")
	if d.Code != ENABLE_INDICATOR_STATUS_UPDATE {
		t.Fatalf("got %s", d.Code)
	}
	want := [4]int{3, 0, 0, 1}
	if d.CMER != want {
		t.Fatalf("got %v, want %v", d.CMER, want)
	}
}

func TestDecodeCMERWrongArity(t *testing.T) {
	d := Decode("AT+CMER=3,0")
	if d.Code != UNKNOWN {
		t.Fatalf("got %s, want UNKNOWN", d.Code)
	}
}

func TestDecodeBIA(t *testing.T) {
	d := Decode("AT+BIA=1,0,1")
	if d.Code != ENABLE_INDIVIDUAL_AG_INDICATOR {
		t.Fatalf("got %s", d.Code)
	}
	want := []bool{true, false, true}
	if len(d.BIAMask) != len(want) {
		t.Fatalf("got %v", d.BIAMask)
	}
	for i := range want {
		if d.BIAMask[i] != want[i] {
			t.Fatalf("got %v, want %v", d.BIAMask, want)
		}
	}
}

func TestDecodeBINDList(t *testing.T) {
	d := Decode("AT+BIND=1,2")
	if d.Code != LIST_GENERIC_STATUS_INDICATORS {
		t.Fatalf("got %s", d.Code)
	}
	if len(d.UUIDs) != 2 || d.UUIDs[0] != 1 || d.UUIDs[1] != 2 {
		t.Fatalf("got %v", d.UUIDs)
	}
}

func TestDecodeCOPSSetFormat(t *testing.T) {
	d := Decode("AT+COPS=3,0")
	if d.Code != QUERY_OPERATOR_SELECTION || !d.COPSWrite || d.COPSMode != 3 || d.COPSFormat != 0 {
		t.Fatalf("got %+v", d)
	}
}

func TestDecodeCOPSQuery(t *testing.T) {
	d := Decode("AT+COPS?")
	if d.Code != QUERY_OPERATOR_SELECTION || d.COPSWrite {
		t.Fatalf("got %+v", d)
	}
}

func TestDecodeCMEE(t *testing.T) {
	d := Decode("AT+CMEE=1")
	if d.Code != ENABLE_EXTENDED_ERROR || !d.CMEEEnabled {
		t.Fatalf("got %+v", d)
	}
}

func TestDecodeBCS(t *testing.T) {
	d := Decode("AT+BCS=2")
	if d.Code != HF_CONFIRMED_CODEC || d.Codec != 2 {
		t.Fatalf("got %+v", d)
	}
}
