// Package iprange реализует проверку принадлежности IP-адреса
// списку доверенных сетей. Список задается строками: CIDR-блоками
// (IPv4 и IPv6) или одиночными адресами.
package iprange

import (
	"fmt"
	"net/netip"
)

// AllowList - разобранный список доверенных сетей.
type AllowList []netip.Prefix

// Parse разбирает список строк в AllowList. Одиночный адрес
// превращается в префикс полной длины (/32 или /128).
// Ошибка в любой из записей делает весь список невалидным.
func Parse(entries []string) (AllowList, error) {
	list := make(AllowList, 0, len(entries))

	for _, entry := range entries {
		prefix, err := netip.ParsePrefix(entry)
		if err == nil {
			list = append(list, prefix)
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid allow list entry %q: %v", entry, err)
		}

		list = append(list, netip.PrefixFrom(addr, addr.BitLen()))
	}

	return list, nil
}

// Contains сообщает, входит ли адрес хотя бы в одну из сетей списка.
// IPv4-адреса, пришедшие в отображенном IPv6-виде (::ffff:a.b.c.d),
// приводятся к обычному IPv4 перед сравнением.
func (l AllowList) Contains(addr netip.Addr) bool {
	addr = addr.Unmap()

	for _, prefix := range l {
		if prefix.Contains(addr) {
			return true
		}
	}

	return false
}

// ContainsString разбирает адрес из строки и проверяет его по списку.
// Невалидная или пустая строка считается не входящей в список.
func (l AllowList) ContainsString(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}

	return l.Contains(addr)
}
