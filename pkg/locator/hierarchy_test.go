package locator

import (
	"testing"

	"github.com/devicelab-dev/appium-vision/pkg/core"
)

const sampleHierarchy = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<hierarchy rotation="0">
  <android.widget.FrameLayout bounds="[0,0][1080,1920]" enabled="true">
    <android.widget.TextView text="Settings" bounds="[40,120][400,200]" enabled="true" clickable="false"/>
    <android.widget.LinearLayout bounds="[0,200][1080,400]" enabled="true">
      <android.widget.TextView text="Bluetooth" resource-id="android:id/title" bounds="[40,240][300,320]" enabled="true" clickable="true"/>
      <android.widget.Switch text="" bounds="[900,240][1040,320]" enabled="true"/>
    </android.widget.LinearLayout>
  </android.widget.FrameLayout>
</hierarchy>`

func TestParseHierarchy(t *testing.T) {
	elements, err := ParseHierarchy(sampleHierarchy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(elements) != 5 {
		t.Fatalf("expected 5 elements, got %d", len(elements))
	}

	// Document order: parents before children.
	if elements[0].ClassName != "android.widget.FrameLayout" || elements[0].Depth != 0 {
		t.Errorf("unexpected root: %+v", elements[0])
	}
	if elements[1].Text != "Settings" || elements[1].Depth != 1 {
		t.Errorf("unexpected second element: %+v", elements[1])
	}

	bt := elements[3]
	if bt.Text != "Bluetooth" || !bt.Clickable || bt.ResourceID != "android:id/title" {
		t.Errorf("unexpected Bluetooth element: %+v", bt)
	}
	want := core.Bounds{X: 40, Y: 240, Width: 260, Height: 80}
	if bt.Bounds != want {
		t.Errorf("expected bounds %+v, got %+v", want, bt.Bounds)
	}
}

func TestParseHierarchy_NoHierarchyElement(t *testing.T) {
	_, err := ParseHierarchy(`<html><body/></html>`)
	if err == nil {
		t.Fatal("expected error for non-hierarchy XML")
	}
}

func TestParseBounds(t *testing.T) {
	cases := []struct {
		in   string
		want core.Bounds
	}{
		{"[0,0][1080,1920]", core.Bounds{X: 0, Y: 0, Width: 1080, Height: 1920}},
		{"[40,240][300,320]", core.Bounds{X: 40, Y: 240, Width: 260, Height: 80}},
		{"garbage", core.Bounds{}},
		{"[1,2][3]", core.Bounds{}},
	}

	for _, tc := range cases {
		if got := parseBounds(tc.in); got != tc.want {
			t.Errorf("parseBounds(%q): expected %+v, got %+v", tc.in, tc.want, got)
		}
	}
}
