package client

import (
	"testing"
	"time"
)

const sampleIndex = `{
  "repo": {
    "name": "Test Repo",
    "icon": "fdroid-icon.png",
    "address": "https://repo.example.org/fdroid/repo",
    "description": "A test repository",
    "version": 18,
    "timestamp": 1748779200000,
    "mirrors": ["https://mirror.example.org/fdroid/repo"]
  },
  "requests": {"install": ["org.example.required"], "uninstall": []},
  "apps": [
    {
      "packageName": "org.example.app",
      "name": "Example App",
      "summary": "Does example things",
      "license": "GPL-3.0-only",
      "categories": ["System"],
      "suggestedVersionName": "1.2",
      "suggestedVersionCode": "20",
      "added": 1735689600000,
      "lastUpdated": 1746057600000
    }
  ],
  "packages": {
    "org.example.app": [
      {
        "apkName": "app-20.apk",
        "hash": "deadbeef",
        "hashType": "sha256",
        "sig": "0123456789abcdef",
        "size": 1024,
        "minSdkVersion": 21,
        "targetSdkVersion": 33,
        "versionName": "1.2",
        "versionCode": 20,
        "packageName": "org.example.app",
        "nativecode": ["arm64-v8a"],
        "uses-permission": [
          ["android.permission.INTERNET", null],
          ["android.permission.CAMERA", 25]
        ],
        "added": 1746057600000
      }
    ]
  }
}`

func TestLoad(t *testing.T) {
	index, err := Load([]byte(sampleIndex))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if index.Repo.Name != "Test Repo" {
		t.Errorf("repo name = %q", index.Repo.Name)
	}
	wantTS := time.UnixMilli(1748779200000).UTC()
	if !index.Repo.Timestamp.Equal(wantTS) {
		t.Errorf("timestamp = %v, want %v", index.Repo.Timestamp, wantTS)
	}
	if len(index.Requests.Install) != 1 || index.Requests.Install[0] != "org.example.required" {
		t.Errorf("install requests = %v", index.Requests.Install)
	}

	if len(index.Apps) != 1 {
		t.Fatalf("got %d apps, want 1", len(index.Apps))
	}
	app := index.Apps[0]
	if app.PackageName != "org.example.app" || app.Name != "Example App" {
		t.Errorf("app = %q/%q", app.PackageName, app.Name)
	}
	if app.CurrentVersion != "1.2" {
		t.Errorf("current version = %q", app.CurrentVersion)
	}
	// The decimal-string suggested version code parses back to an integer.
	if app.CurrentVersionCode != 20 {
		t.Errorf("current version code = %d", app.CurrentVersionCode)
	}

	builds := index.Packages["org.example.app"]
	if len(builds) != 1 {
		t.Fatalf("got %d builds, want 1", len(builds))
	}
	build := builds[0]
	if build.ApkName != "app-20.apk" || build.VersionCode != 20 {
		t.Errorf("build = %q/%d", build.ApkName, build.VersionCode)
	}
	if build.MinSdkVersion != 21 || build.TargetSdkVersion != 33 {
		t.Errorf("sdk bounds = %d/%d", build.MinSdkVersion, build.TargetSdkVersion)
	}

	if len(build.UsesPermission) != 2 {
		t.Fatalf("got %d permissions, want 2", len(build.UsesPermission))
	}
	if build.UsesPermission[0].Name != "android.permission.INTERNET" || build.UsesPermission[0].MaxSdkVersion != nil {
		t.Errorf("permission[0] = %+v", build.UsesPermission[0])
	}
	if build.UsesPermission[1].MaxSdkVersion == nil || *build.UsesPermission[1].MaxSdkVersion != 25 {
		t.Errorf("permission[1] = %+v", build.UsesPermission[1])
	}
}

func TestLoadVerifiedAttachesSignerIdentity(t *testing.T) {
	result := &FetchResult{
		Data:        []byte(sampleIndex),
		PubKey:      "3082aabb",
		Fingerprint: "ABCD",
	}
	index, err := LoadVerified(result)
	if err != nil {
		t.Fatalf("LoadVerified: %v", err)
	}
	if index.Repo.PubKey != "3082aabb" || index.Repo.Fingerprint != "ABCD" {
		t.Errorf("provenance = %q/%q", index.Repo.PubKey, index.Repo.Fingerprint)
	}
}

func TestLoadRejectsBadVersionCode(t *testing.T) {
	bad := `{"repo":{},"apps":[{"packageName":"a","suggestedVersionCode":"not-a-number"}],"packages":{}}`
	if _, err := Load([]byte(bad)); err == nil {
		t.Error("expected error for malformed suggested version code")
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	if _, err := Load([]byte("{")); err == nil {
		t.Error("expected error for truncated document")
	}
}
