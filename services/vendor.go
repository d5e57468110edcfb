package services

import (
	"hash/fnv"
	"strings"

	"ramen-office/models"
)

// SpriteCount - 캐릭터 스프라이트 종류 수
const SpriteCount = 10

// 자주 보이는 OUI(MAC 앞 3바이트) → 제조사/기기 종류
var macVendors = map[string]models.VendorInfo{
	// Apple (Mac)
	"00:03:93": {Vendor: "Apple", Type: models.DeviceLaptop},
	"00:0a:95": {Vendor: "Apple", Type: models.DeviceLaptop},
	"00:0d:93": {Vendor: "Apple", Type: models.DeviceLaptop},
	"00:1e:c2": {Vendor: "Apple", Type: models.DeviceLaptop},
	"00:25:00": {Vendor: "Apple", Type: models.DeviceLaptop},
	"3c:06:30": {Vendor: "Apple", Type: models.DeviceLaptop},
	"14:98:77": {Vendor: "Apple", Type: models.DeviceLaptop},
	"f8:ff:c2": {Vendor: "Apple", Type: models.DeviceLaptop},

	// Apple (iPhone)
	"00:26:08": {Vendor: "Apple iPhone", Type: models.DevicePhone},
	"f0:d1:a9": {Vendor: "Apple iPhone", Type: models.DevicePhone},

	// Dell
	"00:14:22": {Vendor: "Dell", Type: models.DeviceLaptop},
	"00:1a:a0": {Vendor: "Dell", Type: models.DeviceLaptop},
	"00:1e:4f": {Vendor: "Dell", Type: models.DeviceLaptop},
	"18:03:73": {Vendor: "Dell", Type: models.DeviceLaptop},
	"f8:b1:56": {Vendor: "Dell", Type: models.DeviceLaptop},
	"f8:db:88": {Vendor: "Dell", Type: models.DeviceLaptop},
	"5c:f9:dd": {Vendor: "Dell", Type: models.DeviceLaptop},

	// HP
	"00:1e:0b": {Vendor: "HP", Type: models.DeviceLaptop},
	"00:21:5a": {Vendor: "HP", Type: models.DeviceLaptop},
	"00:25:b3": {Vendor: "HP", Type: models.DeviceLaptop},
	"3c:d9:2b": {Vendor: "HP", Type: models.DeviceLaptop},
	"b4:b5:2f": {Vendor: "HP", Type: models.DeviceLaptop},

	// Lenovo
	"00:09:2d": {Vendor: "Lenovo", Type: models.DeviceLaptop},
	"00:1a:6b": {Vendor: "Lenovo", Type: models.DeviceLaptop},
	"00:21:86": {Vendor: "Lenovo", Type: models.DeviceLaptop},
	"60:02:92": {Vendor: "Lenovo", Type: models.DeviceLaptop},
	"e8:2a:ea": {Vendor: "Lenovo", Type: models.DeviceLaptop},
	"98:fa:9b": {Vendor: "Lenovo", Type: models.DeviceLaptop},

	// Microsoft Surface
	"28:18:78": {Vendor: "Microsoft", Type: models.DeviceLaptop},
	"00:15:5d": {Vendor: "Microsoft", Type: models.DeviceLaptop},

	// Intel
	"00:1b:21": {Vendor: "Intel", Type: models.DeviceLaptop},
	"00:1e:64": {Vendor: "Intel", Type: models.DeviceLaptop},
	"00:1f:3b": {Vendor: "Intel", Type: models.DeviceLaptop},
	"3c:a9:f4": {Vendor: "Intel", Type: models.DeviceLaptop},
	"48:51:b7": {Vendor: "Intel", Type: models.DeviceLaptop},
	"5c:87:9c": {Vendor: "Intel", Type: models.DeviceLaptop},

	// ASUS
	"00:1a:92": {Vendor: "ASUS", Type: models.DeviceLaptop},
	"00:1d:60": {Vendor: "ASUS", Type: models.DeviceLaptop},
	"1c:b7:2c": {Vendor: "ASUS", Type: models.DeviceLaptop},
	"2c:4d:54": {Vendor: "ASUS", Type: models.DeviceLaptop},

	// Samsung
	"00:12:47": {Vendor: "Samsung", Type: models.DevicePhone},
	"00:1d:25": {Vendor: "Samsung", Type: models.DevicePhone},
	"5c:0a:5b": {Vendor: "Samsung", Type: models.DevicePhone},
	"8c:71:f8": {Vendor: "Samsung", Type: models.DevicePhone},

	// Google Pixel
	"3c:28:6d": {Vendor: "Google Pixel", Type: models.DevicePhone},
	"f4:f5:d8": {Vendor: "Google Pixel", Type: models.DevicePhone},

	// 네트워크 장비
	"00:00:0c": {Vendor: "Cisco", Type: models.DeviceRouter},
	"00:1a:30": {Vendor: "Cisco", Type: models.DeviceRouter},
	"c0:c1:c0": {Vendor: "Cisco", Type: models.DeviceRouter},
	"00:18:0a": {Vendor: "Netgear", Type: models.DeviceRouter},
	"00:1f:33": {Vendor: "Netgear", Type: models.DeviceRouter},
	"00:14:bf": {Vendor: "Linksys", Type: models.DeviceRouter},
	"00:1a:70": {Vendor: "Linksys", Type: models.DeviceRouter},
	"00:1c:10": {Vendor: "Linksys", Type: models.DeviceRouter},
	"14:7d:da": {Vendor: "TP-Link", Type: models.DeviceRouter},
	"50:c7:bf": {Vendor: "TP-Link", Type: models.DeviceRouter},
	"00:1d:7e": {Vendor: "D-Link", Type: models.DeviceRouter},
	"f8:0d:a9": {Vendor: "Unknown", Type: models.DeviceRouter},
}

// LookupVendor - MAC 주소로 제조사와 기기 종류 추정
//
// 표에 없고 로컬 관리 비트가 켜진 주소는 휴대폰의 무작위 MAC으로 본다.
func LookupVendor(mac string) models.VendorInfo {
	mac = strings.ToLower(mac)
	if len(mac) >= 8 {
		if info, ok := macVendors[mac[:8]]; ok {
			return info
		}
	}
	if IsRandomizedMAC(mac) {
		return models.VendorInfo{Vendor: "Randomized MAC", Type: models.DevicePhone}
	}
	return models.VendorInfo{Vendor: "Unknown", Type: models.DeviceUnknown}
}

// IsRandomizedMAC - 첫 옥텟의 두 번째 hex 문자가 2, 6, a, e인지 (locally administered)
func IsRandomizedMAC(mac string) bool {
	first, _, _ := strings.Cut(mac, ":")
	if len(first) < 2 {
		return false
	}
	switch first[1] {
	case '2', '6', 'a', 'e', 'A', 'E':
		return true
	}
	return false
}

// SpriteIndex - 식별자 해시로 정한 스프라이트 번호 (FNV-1a, 같은 ID는 항상 같은 값)
func SpriteIndex(id string, count int) int {
	if count <= 0 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(id))
	return int(h.Sum32() % uint32(count))
}
